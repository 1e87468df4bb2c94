// Package config loads spendsync configuration.
//
// Configuration lives in spendsync.yaml (or .yml or .json). Empty fields
// take defaults and SPENDSYNC_* environment variables override the file.
//
// # Configuration File Structure
//
//	api:
//	  baseURL: http://localhost:8080
//	  transport: http        # http | ws
//	  timeout: 30s
//	  retry: {initialInterval: 200ms, maxElapsed: 5s}
//	locale: en
//	log: {level: info, format: text}
//	metrics: {namespace: spendsync}
//	attachments:
//	  backend: memory        # memory | disk | s3
//	  dir: ./attachments
//	  bucket: ""
//	  prefix: attachments/
//	  maxSize: 26214400
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config
