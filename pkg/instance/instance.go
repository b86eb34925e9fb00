package instance

import "github.com/Yuriltlef/ApexFlow-sub001/pkg/env"

// ID identifies this process in logs. Platform-provided names are used when
// no explicit id is configured.
func ID() string {
	return env.First("local", "APEXFLOW_INSTANCE_ID", "DYNO", "HOSTNAME")
}
