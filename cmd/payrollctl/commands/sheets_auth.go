package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"payroll/internal/cli"
	"payroll/internal/config"
	gsheet "payroll/internal/sheets/google"
)

const authTimeout = 5 * time.Minute

// sheetsAuthCmd runs the installed-app OAuth flow once and saves the
// resulting token for the report worker.
func sheetsAuthCmd() *cobra.Command {
	var port, tokenFile string
	cmd := &cobra.Command{
		Use:   "sheets-auth",
		Short: "Authorize Google Sheets access with your own account",
		Args:  cobra.NoArgs,
		// Overrides the root hook: no ledger is needed here.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cli.LoadEnvFile()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("port") {
				port = cfg.OAuthRedirectPort
			}
			if !cmd.Flags().Changed("token-file") && cfg.GoogleOAuthTokenFile != "" {
				tokenFile = cfg.GoogleOAuthTokenFile
			}

			clientJSON, err := gsheet.ReadClientCredentials(cfg.GoogleOAuthClientJSON, cfg.GoogleOAuthClientFile)
			if err != nil {
				return err
			}
			oc, err := gsheet.OAuthConfig(clientJSON, "http://localhost:"+port+"/callback")
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), authTimeout)
			defer cancel()
			tok, err := authorize(ctx, oc, port, func(url string) {
				fmt.Fprintf(cmd.OutOrStdout(), "Open this URL to authorize:\n%s\n", url)
			})
			if err != nil {
				return err
			}
			if err := gsheet.SaveToken(tokenFile, tok); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved token to %s\n", tokenFile)
			return nil
		},
	}
	cmd.Flags().StringVar(&port, "port", "8085", "local port for the OAuth redirect")
	cmd.Flags().StringVar(&tokenFile, "token-file", "token.json", "where to save the token")
	return cmd
}

func authorize(ctx context.Context, oc *oauth2.Config, port string, show func(url string)) (*oauth2.Token, error) {
	state := uuid.NewString()
	codes := make(chan string, 1)
	mux := http.NewServeMux()
	mux.Handle("GET /callback", callbackHandler(state, codes))
	srv := &http.Server{Addr: ":" + port, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	listenErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
	}()
	defer srv.Close()

	show(oc.AuthCodeURL(state, oauth2.AccessTypeOffline))

	select {
	case code := <-codes:
		tok, err := oc.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("token exchange: %w", err)
		}
		return tok, nil
	case err := <-listenErr:
		return nil, fmt.Errorf("callback server: %w", err)
	case <-ctx.Done():
		return nil, fmt.Errorf("authorization not completed: %w", ctx.Err())
	}
}

// callbackHandler forwards the first authorization code whose state matches.
func callbackHandler(state string, codes chan<- string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if e := q.Get("error"); e != "" {
			http.Error(w, "OAuth error: "+e, http.StatusBadRequest)
			return
		}
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		select {
		case codes <- code:
		default:
		}
		fmt.Fprintln(w, "You may close this window and return to the terminal.")
	}
}
