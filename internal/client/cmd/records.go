package cmd

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

type recordsClient struct {
	serverURL *string

	title      string
	specialty  string
	recordType string
	date       string
	provider   string
	reason     string
	details    string
	diagnosis  string
	medication string
	followUp   string

	mode    string
	version int64
	limit   int
}

func newRecordsCmd(serverURL *string) *cobra.Command {
	r := &recordsClient{serverURL: serverURL}
	cmd := &cobra.Command{Use: "records", Short: "Manage health records"}

	cmd.AddCommand(&cobra.Command{Use: "list", Short: "List records", RunE: r.list})

	add := &cobra.Command{Use: "add", Short: "Add a record", RunE: r.add}
	r.contentFlags(add)
	cmd.AddCommand(add)

	update := &cobra.Command{Use: "update", Short: "Update record by id", Args: cobra.ExactArgs(1), RunE: r.update}
	r.contentFlags(update)
	update.Flags().Int64Var(&r.version, "version", 0, "Version the edit is based on (required)")
	_ = update.MarkFlagRequired("version")
	cmd.AddCommand(update)

	get := &cobra.Command{Use: "get", Short: "Get record by id", Args: cobra.ExactArgs(1), RunE: r.get}
	get.Flags().StringVar(&r.mode, "mode", "data", "Projection mode: data or opinion")
	cmd.AddCommand(get)

	cmd.AddCommand(&cobra.Command{Use: "delete", Short: "Delete record by id", Args: cobra.ExactArgs(1), RunE: r.delete})

	summary := &cobra.Command{Use: "summary", Short: "Grouped, recent and upcoming records", RunE: r.summary}
	summary.Flags().IntVar(&r.limit, "limit", 5, "How many recent and upcoming entries to show")
	cmd.AddCommand(summary)

	cmd.AddCommand(&cobra.Command{Use: "log", Short: "Access history for record by id", Args: cobra.ExactArgs(1), RunE: r.accessLog})
	return cmd
}

func (r *recordsClient) contentFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&r.title, "title", "", "Record title (required)")
	cmd.Flags().StringVar(&r.specialty, "specialty", "", "Specialty, e.g. dentistry (required)")
	cmd.Flags().StringVar(&r.recordType, "type", "", "Record type within the specialty (required)")
	cmd.Flags().StringVar(&r.date, "date", "", "Record date, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&r.provider, "provider", "", "Provider name")
	cmd.Flags().StringVar(&r.reason, "reason", "", "Reason for the visit")
	cmd.Flags().StringVar(&r.details, "details", "", "Detail notes")
	cmd.Flags().StringVar(&r.diagnosis, "diagnosis", "", "Diagnosis")
	cmd.Flags().StringVar(&r.medication, "medication", "", "Medication name")
	cmd.Flags().StringVar(&r.followUp, "follow-up", "", "Follow-up date, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("specialty")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("date")
}

func (r *recordsClient) candidate() map[string]any {
	content := map[string]any{}
	if r.reason != "" {
		content["reason"] = r.reason
	}
	if r.details != "" {
		content["details"] = r.details
	}
	if r.diagnosis != "" {
		content["diagnosis"] = r.diagnosis
	}
	if r.medication != "" {
		content["medication"] = map[string]any{"name": r.medication}
	}
	if r.followUp != "" {
		content["follow_up"] = map[string]any{"date": r.followUp}
	}
	return map[string]any{
		"title":       r.title,
		"specialty":   r.specialty,
		"record_type": r.recordType,
		"date":        r.date,
		"provider":    r.provider,
		"content":     content,
	}
}

func (r *recordsClient) list(cmd *cobra.Command, args []string) error {
	var items []map[string]any
	if err := doAuthed(*r.serverURL, http.MethodGet, "/api/v1/records", nil, &items); err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), items)
}

func (r *recordsClient) add(cmd *cobra.Command, args []string) error {
	var rec map[string]any
	if err := doAuthed(*r.serverURL, http.MethodPost, "/api/v1/records", r.candidate(), &rec); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Stored record %v\n", rec["id"])
	return nil
}

func (r *recordsClient) update(cmd *cobra.Command, args []string) error {
	// If-Match is how the server detects concurrent edits; build the
	// request by hand since doAuthed has no header hook.
	token := ""
	var err error
	if token, err = authToken(*r.serverURL); err != nil {
		return err
	}
	req, err := jsonRequest(http.MethodPut, *r.serverURL+"/api/v1/records/"+args[0], r.candidate())
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("If-Match", fmt.Sprintf("%d", r.version))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusPreconditionFailed {
		return fmt.Errorf("record changed since version %d, fetch it again", r.version)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("update failed: %s", resp.Status)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Updated")
	return nil
}

func (r *recordsClient) get(cmd *cobra.Command, args []string) error {
	var view map[string]any
	path := "/api/v1/records/" + args[0] + "?mode=" + url.QueryEscape(r.mode)
	if err := doAuthed(*r.serverURL, http.MethodGet, path, nil, &view); err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), view)
}

func (r *recordsClient) delete(cmd *cobra.Command, args []string) error {
	if err := doAuthed(*r.serverURL, http.MethodDelete, "/api/v1/records/"+args[0], nil, nil); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Deleted")
	return nil
}

func (r *recordsClient) summary(cmd *cobra.Command, args []string) error {
	var sum map[string]any
	path := fmt.Sprintf("/api/v1/records/summary?limit=%d", r.limit)
	if err := doAuthed(*r.serverURL, http.MethodGet, path, nil, &sum); err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), sum)
}

func (r *recordsClient) accessLog(cmd *cobra.Command, args []string) error {
	var entries []map[string]any
	if err := doAuthed(*r.serverURL, http.MethodGet, "/api/v1/records/"+args[0]+"/access-log", nil, &entries); err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), entries)
}
