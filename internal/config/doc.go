// Package config provides configuration parsing for fiber projects.
//
// The configuration is stored in fiber.json at the project root.
// This package handles loading, saving, and validating configuration.
//
// # Configuration File Structure
//
//	{
//	  "scheduler": {
//	    "sliceBudget": "16ms",
//	    "maxWait": "500ms",
//	    "pollInterval": "5ms",
//	    "minRemaining": "1ms"
//	  },
//	  "server": {
//	    "host": "localhost",
//	    "port": 7070,
//	    "containerTag": "body"
//	  },
//	  "log": {
//	    "level": "info",
//	    "format": "text"
//	  },
//	  "publish": {
//	    "bucket": "my-snapshots",
//	    "prefix": "pages/",
//	    "region": "us-east-1",
//	    "endpoint": "http://localhost:9000",
//	    "pathStyle": true
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "fiber"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	timings, err := cfg.Timings()
package config
