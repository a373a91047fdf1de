// Package config loads YAML configuration and environment overrides into a
// struct with Viper.
//
// Files are looked up in the working directory and the user config
// directory unless given explicitly. A .env file is loaded into the process
// environment first, then every variable carrying the prefix overrides the
// matching key:
//
//	APICALL_BACKEND=browser          -> backend
//	APICALL_TLS_SKIP_VERIFY=true     -> tls.skip_verify
//	APICALL_OBSERVABILITY_TRACING=1  -> observability.tracing
//
//	var cfg MyConfig
//	err := config.Load("apicall", &cfg, config.WithConfigFile("./apicall.yml"))
package config
