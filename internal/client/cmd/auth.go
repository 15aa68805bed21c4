package cmd

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"healthvault/internal/client/session"
)

type authClient struct {
	serverURL *string
	role      string
}

func newAuthCmd(serverURL *string) *cobra.Command {
	a := &authClient{serverURL: serverURL}
	cmd := &cobra.Command{Use: "auth", Short: "Authentication commands"}

	register := &cobra.Command{Use: "register", Short: "Register new user", RunE: a.register}
	register.Flags().StringVar(&a.role, "role", "patient", "Account role: patient or provider")
	cmd.AddCommand(register)
	cmd.AddCommand(&cobra.Command{Use: "login", Short: "Login and store token", RunE: a.login})
	cmd.AddCommand(&cobra.Command{Use: "logout", Short: "Forget stored credentials", RunE: a.logout})
	return cmd
}

func (a *authClient) register(cmd *cobra.Command, args []string) error {
	email, password, err := promptCredentials(cmd)
	if err != nil {
		return err
	}
	body := map[string]string{"email": email, "password": password, "role": a.role}
	b, _ := json.Marshal(body)
	resp, err := http.Post(*a.serverURL+"/api/v1/auth/register", "application/json", bytes.NewReader(b))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("register failed: %s", resp.Status)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Registered")
	return nil
}

func (a *authClient) login(cmd *cobra.Command, args []string) error {
	email, password, err := promptCredentials(cmd)
	if err != nil {
		return err
	}
	body := map[string]string{"email": email, "password": password}
	b, _ := json.Marshal(body)
	resp, err := http.Post(*a.serverURL+"/api/v1/auth/login", "application/json", bytes.NewReader(b))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("login failed: %s", resp.Status)
	}
	var result struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}
	if err := session.SaveToken(result.AccessToken); err != nil {
		return err
	}
	if result.RefreshToken != "" {
		_ = session.SaveRefresh(result.RefreshToken)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Logged in")
	return nil
}

func (a *authClient) logout(cmd *cobra.Command, args []string) error {
	if err := session.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
	return nil
}

func promptCredentials(cmd *cobra.Command) (string, string, error) {
	reader := bufio.NewReader(os.Stdin)
	fmt.Fprint(cmd.OutOrStdout(), "Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)
	password, err := promptPassword(cmd, "Password: ")
	if err != nil {
		return "", "", err
	}
	return email, string(password), nil
}

func promptPassword(cmd *cobra.Command, prompt string) ([]byte, error) {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	pass, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(cmd.OutOrStdout())
	return pass, err
}
