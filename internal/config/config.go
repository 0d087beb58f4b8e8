package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time expresses the lease duration
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.  The lease duration is threaded through the
// reservation service constructor rather than read as a hidden constant so
// tests can run with short leases.
type Config struct {
	Env     string        // application environment (e.g. "dev", "prod")
	Port    string        // HTTP port to listen on
	DBUser  string        // database username
	DBPass  string        // database password (optional)
	DBHost  string        // database host address
	DBPort  string        // database port number
	DBName  string        // database name
	HoldTTL time.Duration // how long a reservation holds stock before it expires
	AMQPURL string        // RabbitMQ URL; empty disables the broker-backed scheduler
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:     must("APP_ENV"),      // environment (dev/test/prod)
		Port:    must("APP_PORT"),     // port to bind the HTTP server
		DBUser:  must("DB_USER"),      // database user
		DBPass:  os.Getenv("DB_PASS"), // database password (empty allowed)
		DBHost:  must("DB_HOST"),      // database host
		DBPort:  must("DB_PORT"),      // database port
		DBName:  must("DB_NAME"),      // database name
		HoldTTL: time.Duration(intOr("HOLD_TTL_SEC", 120)) * time.Second,
		AMQPURL: amqpURL(), // empty means expirations run on in-process timers
	}
}

// amqpURL reads the broker URL.  Both RABBITMQ_URL and AMQP_URL are
// accepted; an empty result is valid and selects the timer scheduler.
func amqpURL() string {
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		return v
	}
	return os.Getenv("AMQP_URL")
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// intOr retrieves an optional integer environment variable, falling back
// to def when the variable is unset.  An unparsable value is fatal.
func intOr(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
