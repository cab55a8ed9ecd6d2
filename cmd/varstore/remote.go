package main

import (
	"fmt"
	"strings"

	"github.com/loykin/varstore/pkg/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Query or modify a running varstore server",
}

func newClient() (*client.Client, error) {
	s, err := loadSettings(viper.GetViper())
	if err != nil {
		return nil, err
	}
	return client.New(s.Addr, s.Token, client.WithTimeout(s.Timeout)), nil
}

var remoteGetCmd = &cobra.Command{
	Use:   "get NAME",
	Short: "Print the data of a variable",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		data, err := c.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), data)
		return nil
	},
}

var remoteTypeCmd = &cobra.Command{
	Use:   "type NAME",
	Short: "Print the type of a variable",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		typ, err := c.GetType(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), typ)
		return nil
	},
}

var remoteObjectCmd = &cobra.Command{
	Use:   "object NAME",
	Short: "Print name, type and data of a variable",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		v, err := c.GetObject(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "name=%s type=%s data=%s\n", v.Name, v.Type, v.Data)
		return nil
	},
}

var remoteExistsCmd = &cobra.Command{
	Use:   "exists NAME",
	Short: "Print true or false",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		ok, err := c.Exists(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), ok)
		return nil
	},
}

var remoteSetCmd = &cobra.Command{
	Use:   "set NAME TYPE DATA",
	Short: "Create a variable or update its data",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		if err := c.Set(cmd.Context(), args[0], args[1], args[2]); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "success")
		return nil
	},
}

var remoteRemoveCmd = &cobra.Command{
	Use:   "remove NAME",
	Short: "Delete a variable",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		if err := c.Remove(cmd.Context(), args[0]); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "success")
		return nil
	},
}

var remoteListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every variable name",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		names, err := c.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(names) > 0 {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(names, "\n"))
		}
		return nil
	},
}

func initRemote(v *viper.Viper) {
	pf := remoteCmd.PersistentFlags()
	pf.String("addr", v.GetString("addr"), "base URL of the varstore server")
	pf.String("token", v.GetString("token"), "auth token sent as the auth_token query parameter")
	pf.Duration("timeout", v.GetDuration("timeout"), "per-request timeout")

	_ = v.BindPFlag("addr", pf.Lookup("addr"))
	_ = v.BindPFlag("token", pf.Lookup("token"))
	_ = v.BindPFlag("timeout", pf.Lookup("timeout"))

	remoteCmd.AddCommand(remoteGetCmd, remoteTypeCmd, remoteObjectCmd, remoteExistsCmd,
		remoteSetCmd, remoteRemoveCmd, remoteListCmd)
}
