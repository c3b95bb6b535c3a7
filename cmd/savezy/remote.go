package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/savezy/savezy/pkg/contents"
	"github.com/savezy/savezy/pkg/remote"
	"github.com/spf13/cobra"
)

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Work with the remote mirror",
	Long: `Commands for the hosted remote mirror. Its records are separate from the local
database: nothing is synced or merged between the two.`,
}

var remoteLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the remote mirror",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		email, _ := cmd.Flags().GetString("email")
		if email == "" {
			line, err := readLine(bufio.NewReader(cmd.InOrStdin()), "Email: ", out)
			if err != nil {
				return err
			}
			email = line
		}
		password, err := getPassword(out)
		if err != nil {
			return err
		}

		client := remote.NewClient(cfg.RemoteURL, logger)
		s, err := client.AuthWithPassword(cmd.Context(), email, password)
		if err != nil {
			return err
		}
		if err := remote.SaveSession(cfg.SessionPath, s); err != nil {
			return err
		}
		fmt.Fprintf(out, "Signed in as %s.\n", s.Email)
		return nil
	},
}

var remoteLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved remote session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := remote.ClearSession(cfg.SessionPath); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
		return nil
	},
}

var remoteHealthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check whether the remote mirror is reachable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newRemoteClient()
		if err != nil {
			return err
		}
		if err := client.Health(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Remote mirror at %s is healthy.\n", cfg.RemoteURL)
		return nil
	},
}

var remoteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List records on the remote mirror",
	Long:  `Lists remote records, scoped to the signed-in user when there is a session.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var kind contents.Kind
		if typ, _ := cmd.Flags().GetString("type"); typ != "" {
			k, err := contents.ParseKind(typ)
			if err != nil {
				return err
			}
			kind = k
		}

		client, err := newRemoteClient()
		if err != nil {
			return err
		}
		records, err := client.List(cmd.Context(), kind)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No remote records found.")
			return nil
		}
		return printJSON(cmd.OutOrStdout(), records)
	},
}

var remoteCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a record on the remote mirror",
	Long: `Creates a remote record from flags, or copies a local item with --from-local.
Direction items have no remote collection.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fromLocal, _ := cmd.Flags().GetInt64("from-local")

		var rec remote.Record
		if fromLocal > 0 {
			c, closeFn, err := openCache(cmd.Context())
			if err != nil {
				return err
			}
			local, ok := c.Get(fromLocal)
			closeFn()
			if !ok {
				return fmt.Errorf("local item %d not found", fromLocal)
			}
			rec = remote.FromContent(local)
		} else {
			typ, _ := cmd.Flags().GetString("type")
			kind, err := contents.ParseKind(typ)
			if err != nil {
				return err
			}
			p := patchFromFlags(cmd)
			rec = remote.FromContent(p.Apply(contents.Record{Kind: kind}))
		}

		client, err := newRemoteClient()
		if err != nil {
			return err
		}
		created, err := client.Create(cmd.Context(), rec.Kind, rec)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), created)
	},
}

var remoteDeleteCmd = &cobra.Command{
	Use:   "delete [type] [id]",
	Short: "Delete a record from the remote mirror",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := contents.ParseKind(args[0])
		if err != nil {
			return err
		}
		client, err := newRemoteClient()
		if err != nil {
			return err
		}
		if err := client.Delete(cmd.Context(), kind, args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Remote record %s deleted.\n", args[1])
		return nil
	},
}

var remoteSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the remote mirror by text",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newRemoteClient()
		if err != nil {
			return err
		}
		records, err := client.Search(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No remote records found.")
			return nil
		}
		return printJSON(cmd.OutOrStdout(), records)
	},
}

func initRemoteCmd() {
	remoteLoginCmd.Flags().StringP("email", "e", "", "Account email (prompted when omitted)")

	remoteListCmd.Flags().String("type", "", "Only records of this kind")

	remoteCreateCmd.Flags().String("type", "", fmt.Sprintf("Kind of record: %s", kindList()))
	remoteCreateCmd.Flags().Int64("from-local", 0, "Copy the local item with this id")
	addRecordFlags(remoteCreateCmd)

	remoteCmd.AddCommand(remoteLoginCmd, remoteLogoutCmd, remoteHealthCmd, remoteListCmd, remoteCreateCmd, remoteDeleteCmd, remoteSearchCmd)
}
