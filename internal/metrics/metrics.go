// Package metrics holds the Prometheus collectors of the wise delegator.
package metrics

const (
	namespace = "wisedelegator"
	unknown   = "unknown"
)

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
