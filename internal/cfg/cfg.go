package cfg

import (
	"errors"
	"flag"
	"fmt"
)

// Config adds hub-specific configuration fields to the
// common cfg.Registerable and cfg.Validatable interfaces
type Config struct {
	DrainSeconds           int
	ShutdownBudgetSeconds  int
	APIPort                int
	APIToken               string
	DatabaseURL            string
	AlertSourceURL         string
	DeliveryURL            string
	DispatchMaxInFlight    int
	DispatchTimeoutSeconds int
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.DrainSeconds, "drain-seconds", 60, "seconds to wait for in-flight requests to drain before shutdown (1..300)")
	fs.IntVar(&c.ShutdownBudgetSeconds, "shutdown-budget-seconds", 90, "total seconds for component shutdown after drain (1..300)")
	fs.IntVar(&c.APIPort, "http-port", 8080, "API listen TCP port (1..65535)")
	fs.StringVar(&c.APIToken, "api-token", "", "bearer token required on API requests (empty = no auth)")
	fs.StringVar(&c.DatabaseURL, "database-url", "", "PostgreSQL connection URL (empty = in-memory store)")
	fs.StringVar(&c.AlertSourceURL, "alert-source-url", "", "base URL of the alert feed supplying flagged alert snapshots")
	fs.StringVar(&c.DeliveryURL, "delivery-url", "", "endpoint of the external delivery relay for notifications")
	fs.IntVar(&c.DispatchMaxInFlight, "dispatch-max-inflight", 8, "max concurrent deliveries per notify call (1..256)")
	fs.IntVar(&c.DispatchTimeoutSeconds, "dispatch-timeout-seconds", 30, "seconds one notify call may block on deliveries (1..300)")
}

// Validate checks all configuration fields for correctness.
// It returns an error if any field is invalid, or nil if all fields are valid.
func (c *Config) Validate() error {
	var errs []error

	// Drain and shutdown budgets
	if c.DrainSeconds <= 0 || c.DrainSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid DRAIN_SECONDS %d (must be 1..300)", c.DrainSeconds))
	}
	if c.ShutdownBudgetSeconds <= 0 || c.ShutdownBudgetSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid SHUTDOWN_BUDGET_SECONDS %d (must be 1..300)", c.ShutdownBudgetSeconds))
	}

	// Shutdown budget must be greater than drain time
	if c.ShutdownBudgetSeconds <= c.DrainSeconds {
		errs = append(errs, fmt.Errorf("SHUTDOWN_BUDGET_SECONDS %d must be greater than DRAIN_SECONDS %d", c.ShutdownBudgetSeconds, c.DrainSeconds))
	}

	// API port must be valid TCP port number
	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.APIPort))
	}

	// Alert source feed is required for flagging alerts
	if c.AlertSourceURL == "" {
		errs = append(errs, errors.New("ALERT_SOURCE_URL is required"))
	}

	// Delivery relay is required for notification dispatch
	if c.DeliveryURL == "" {
		errs = append(errs, errors.New("DELIVERY_URL is required"))
	}

	if c.DispatchMaxInFlight <= 0 || c.DispatchMaxInFlight > 256 {
		errs = append(errs, fmt.Errorf("invalid DISPATCH_MAX_INFLIGHT %d (must be 1..256)", c.DispatchMaxInFlight))
	}
	if c.DispatchTimeoutSeconds <= 0 || c.DispatchTimeoutSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid DISPATCH_TIMEOUT_SECONDS %d (must be 1..300)", c.DispatchTimeoutSeconds))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
