package serve

import (
	"github.com/spf13/cobra"

	"github.com/Jyoti-coder1/Postsphere-feed-explorer/cmd/exec_common"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/cmd/util"
)

// bindRunFlags binds the cobra cmd flags to the equivalent config value being managed
// by viper. This bridges the config between cobra flags and viper flags.
func bindRunFlags(command *cobra.Command, _ []string) {
	flags := command.Flags()

	util.MustBindPFlag("http.addr", flags.Lookup("http-addr"))
	util.MustBindEnv("http.addr", "FEEDEXPLORER_HTTP_ADDR")

	util.MustBindPFlag("http.tls.enabled", flags.Lookup("http-tls-enabled"))
	util.MustBindEnv("http.tls.enabled", "FEEDEXPLORER_HTTP_TLS_ENABLED")

	util.MustBindPFlag("http.tls.cert", flags.Lookup("http-tls-cert"))
	util.MustBindEnv("http.tls.cert", "FEEDEXPLORER_HTTP_TLS_CERT")

	util.MustBindPFlag("http.tls.key", flags.Lookup("http-tls-key"))
	util.MustBindEnv("http.tls.key", "FEEDEXPLORER_HTTP_TLS_KEY")

	util.MustBindPFlag("http.corsAllowedOrigins", flags.Lookup("http-cors-allowed-origins"))
	util.MustBindEnv("http.corsAllowedOrigins", "FEEDEXPLORER_HTTP_CORS_ALLOWED_ORIGINS", "FEEDEXPLORER_HTTP_CORSALLOWEDORIGINS")

	util.MustBindPFlag("http.corsAllowedHeaders", flags.Lookup("http-cors-allowed-headers"))
	util.MustBindEnv("http.corsAllowedHeaders", "FEEDEXPLORER_HTTP_CORS_ALLOWED_HEADERS", "FEEDEXPLORER_HTTP_CORSALLOWEDHEADERS")

	util.MustBindPFlag("http.requestTimeout", flags.Lookup("http-request-timeout"))
	util.MustBindEnv("http.requestTimeout", "FEEDEXPLORER_HTTP_REQUEST_TIMEOUT", "FEEDEXPLORER_HTTP_REQUESTTIMEOUT")

	util.MustBindPFlag("feed.pageSize", flags.Lookup("feed-page-size"))
	util.MustBindEnv("feed.pageSize", "FEEDEXPLORER_FEED_PAGE_SIZE", "FEEDEXPLORER_FEED_PAGESIZE")

	util.MustBindPFlag("feed.defaultMode", flags.Lookup("feed-default-mode"))
	util.MustBindEnv("feed.defaultMode", "FEEDEXPLORER_FEED_DEFAULT_MODE", "FEEDEXPLORER_FEED_DEFAULTMODE")

	util.MustBindPFlag("metrics.enabled", flags.Lookup("metrics-enabled"))
	util.MustBindEnv("metrics.enabled", "FEEDEXPLORER_METRICS_ENABLED")

	util.MustBindPFlag("trace.enabled", flags.Lookup("trace-enabled"))
	util.MustBindEnv("trace.enabled", "FEEDEXPLORER_TRACE_ENABLED")

	util.MustBindPFlag("trace.otlp.endpoint", flags.Lookup("trace-otlp-endpoint"))
	util.MustBindEnv("trace.otlp.endpoint", "FEEDEXPLORER_TRACE_OTLP_ENDPOINT")

	util.MustBindPFlag("trace.sampleRatio", flags.Lookup("trace-sample-ratio"))
	util.MustBindEnv("trace.sampleRatio", "FEEDEXPLORER_TRACE_SAMPLE_RATIO", "FEEDEXPLORER_TRACE_SAMPLERATIO")

	util.MustBindPFlag("trace.serviceName", flags.Lookup("trace-service-name"))
	util.MustBindEnv("trace.serviceName", "FEEDEXPLORER_TRACE_SERVICE_NAME", "FEEDEXPLORER_TRACE_SERVICENAME")

	exec_common.BindAPIFlags(flags)
}
