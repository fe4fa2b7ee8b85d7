// Package conf loads configuration from scripts.
//
// A configuration script assigns a table to the `config` global; conf
// runs it in a sandboxed engine, keeps a registry reference to the table
// and answers dotted-path lookups against the live value:
//
//	cfg, err := conf.Load("app.lua")
//	if err != nil {
//	    return err
//	}
//	defer cfg.Close()
//
//	workers := cfg.Int("pool.workers", 4)
//	out, _ := cfg.Call("hooks.on_start", 1, workers)
//
// Because the table stays live, configuration can carry hook functions
// alongside plain values, and Watch gives live reload when the script
// changes on disk. Snapshots export to TOML or JSON for consumers that
// want inert data.
package conf
