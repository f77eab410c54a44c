// Package config loads navrouter project configuration.
//
// The configuration is stored in navrouter.json or navrouter.yaml at the
// project root. A .env file next to it is loaded into the environment
// first, and NAVROUTER_* variables override file settings.
//
// # Configuration File Structure
//
//	name: shop
//	routesFile: routes.yaml
//	history:
//	  key: history
//	  maxLength: 15
//	language:
//	  default: en
//	storage:
//	  backend: redis
//	  redisAddr: localhost:6379
//	server:
//	  host: localhost
//	  port: 3000
//	  origin: http://localhost:3000
//
// Routes may be listed inline under "routes" instead of in a routes file:
//
//	routes:
//	  - label: home
//	    path: /
//	  - label: item
//	    path: /items/:id
//	    layout:
//	      component: ItemPage
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
