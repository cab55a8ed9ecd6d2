package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:           "varstore",
	Short:         "Serve a persistent store of typed variables over HTTP",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(viper.GetViper())
		if err != nil {
			return err
		}
		if err := setupLogging(s); err != nil {
			return err
		}
		return newRunner(s, cmd.InOrStdin(), cmd.OutOrStdout()).Run(cmd.Context())
	},
}

func init() {
	v := viper.GetViper()
	setDefaults(v)

	// Environment variables support: VARSTORE_DATA_DIR, VARSTORE_STORAGE, ...
	v.SetEnvPrefix("VARSTORE")
	v.AutomaticEnv()

	flags := rootCmd.Flags()
	flags.String("data-dir", v.GetString("data_dir"), "directory holding variables.json and config.json")
	flags.String("storage", v.GetString("storage"), "document backend: file or sqlite")
	flags.Bool("configure-auth", false, "prompt for a new auth token, save it and exit")
	flags.Bool("metrics", v.GetBool("metrics"), "expose Prometheus metrics on /metrics")
	rootCmd.PersistentFlags().String("log-level", v.GetString("log_level"), "error, warn, info or debug")
	rootCmd.PersistentFlags().String("log-format", v.GetString("log_format"), "text, json or color")
	rootCmd.PersistentFlags().Bool("mask-sensitive", v.GetBool("mask_sensitive"), "mask auth tokens in log output")

	_ = v.BindPFlag("data_dir", flags.Lookup("data-dir"))
	_ = v.BindPFlag("storage", flags.Lookup("storage"))
	_ = v.BindPFlag("configure_auth", flags.Lookup("configure-auth"))
	_ = v.BindPFlag("metrics", flags.Lookup("metrics"))
	_ = v.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = v.BindPFlag("mask_sensitive", rootCmd.PersistentFlags().Lookup("mask-sensitive"))

	initRemote(v)
	rootCmd.AddCommand(remoteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		exitHandler.LogFatalError(err, "command execution failed")
	}
}
