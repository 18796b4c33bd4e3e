// Package config provides configuration management for warden.
//
// Configuration is loaded from environment variables using the env
// package. All values have sensible defaults for development use.
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("coordinator will listen on %s\n", cfg.GetHTTPAddr())
package config
