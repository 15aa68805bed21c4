package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

type sharesClient struct {
	serverURL *string

	providerID string
	expiresIn  time.Duration
	note       string
}

// newSharesCmd covers the record owner's side: granting and revoking access.
func newSharesCmd(serverURL *string) *cobra.Command {
	s := &sharesClient{serverURL: serverURL}
	cmd := &cobra.Command{Use: "shares", Short: "Share records with providers"}

	grant := &cobra.Command{Use: "grant", Short: "Share record by id with a provider", Args: cobra.ExactArgs(1), RunE: s.grant}
	grant.Flags().StringVar(&s.providerID, "provider-id", "", "Provider user id (required)")
	grant.Flags().DurationVar(&s.expiresIn, "expires-in", 7*24*time.Hour, "How long the share stays open")
	_ = grant.MarkFlagRequired("provider-id")
	cmd.AddCommand(grant)

	cmd.AddCommand(&cobra.Command{Use: "revoke", Short: "Revoke share by id", Args: cobra.ExactArgs(1), RunE: s.revoke})
	return cmd
}

// newSharedCmd covers the provider's side: the inbox of records shared with them.
func newSharedCmd(serverURL *string) *cobra.Command {
	s := &sharesClient{serverURL: serverURL}
	cmd := &cobra.Command{Use: "shared", Short: "Records shared with you"}

	cmd.AddCommand(&cobra.Command{Use: "list", Short: "List active shares", RunE: s.list})
	cmd.AddCommand(&cobra.Command{Use: "view", Short: "View shared record by share id", Args: cobra.ExactArgs(1), RunE: s.view})

	note := &cobra.Command{Use: "note", Short: "Append a note to a share", Args: cobra.ExactArgs(1), RunE: s.appendNote}
	note.Flags().StringVar(&s.note, "text", "", "Note text (required)")
	_ = note.MarkFlagRequired("text")
	cmd.AddCommand(note)
	return cmd
}

func (s *sharesClient) grant(cmd *cobra.Command, args []string) error {
	body := map[string]any{
		"provider_id": s.providerID,
		"expires_at":  time.Now().Add(s.expiresIn).Format(time.RFC3339),
	}
	var sh map[string]any
	if err := doAuthed(*s.serverURL, http.MethodPost, "/api/v1/records/"+args[0]+"/shares", body, &sh); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Share %v open until %v\n", sh["id"], sh["expires_at"])
	return nil
}

func (s *sharesClient) revoke(cmd *cobra.Command, args []string) error {
	if err := doAuthed(*s.serverURL, http.MethodDelete, "/api/v1/shares/"+args[0], nil, nil); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Revoked")
	return nil
}

func (s *sharesClient) list(cmd *cobra.Command, args []string) error {
	var items []map[string]any
	if err := doAuthed(*s.serverURL, http.MethodGet, "/api/v1/shared", nil, &items); err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), items)
}

func (s *sharesClient) view(cmd *cobra.Command, args []string) error {
	var view map[string]any
	if err := doAuthed(*s.serverURL, http.MethodGet, "/api/v1/shared/"+args[0], nil, &view); err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), view)
}

func (s *sharesClient) appendNote(cmd *cobra.Command, args []string) error {
	body := map[string]string{"text": s.note}
	var sh map[string]any
	if err := doAuthed(*s.serverURL, http.MethodPost, "/api/v1/shared/"+args[0]+"/notes", body, &sh); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Note added")
	return nil
}
