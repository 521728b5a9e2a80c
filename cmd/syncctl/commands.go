package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pathwise/syncengine/internal/auth"
	"github.com/pathwise/syncengine/internal/models"
	"github.com/pathwise/syncengine/pkg/api"
)

func newLoginCmd() *cobra.Command {
	var username, token string
	var expiresIn time.Duration

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store bearer credentials for the sync engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.unlockCredentials(ctx); err != nil {
				return err
			}

			creds := &auth.Credentials{
				Username:    username,
				AccessToken: token,
			}
			if expiresIn > 0 {
				creds.ExpiresAt = time.Now().Add(expiresIn).Unix()
			}
			if err := a.creds.Save(ctx, creds); err != nil {
				return err
			}

			fmt.Println("✓ Credentials stored")
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username (informational)")
	cmd.Flags().StringVar(&token, "token", "", "Bearer access token issued by the identity provider")
	cmd.Flags().DurationVar(&expiresIn, "expires-in", 0, "Token lifetime for opaque (non-JWT) tokens")
	_ = cmd.MarkFlagRequired("token")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.creds.Delete(ctx); err != nil {
				return err
			}
			fmt.Println("✓ Logged out")
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show engine status and pending changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			status := a.engine.Status()
			fmt.Printf("State:           %s\n", status.State)
			fmt.Printf("Pending changes: %d\n", status.PendingChanges)
			fmt.Printf("Errors:          %d\n", status.Errors)
			if !status.LastSync.IsZero() {
				fmt.Printf("Last sync:       %s\n", status.LastSync.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func newSyncCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Connect and drain the offline queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.unlockCredentials(ctx); err != nil {
				return err
			}

			pending := a.engine.Status().PendingChanges
			fmt.Printf("Pending operations: %d\n", pending)

			if err := a.engine.Initialize(ctx); err != nil {
				return fmt.Errorf("synchronization failed: %w", err)
			}

			if err := waitForIdle(ctx, a, timeout); err != nil {
				return err
			}

			status := a.engine.Status()
			fmt.Println("✓ Synchronization completed")
			fmt.Printf("Remaining in queue: %d\n", status.PendingChanges)
			fmt.Printf("Errors:             %d\n", status.Errors)
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "Maximum time to wait for the queue to drain")
	return cmd
}

// waitForIdle ждет, пока очередь опустеет, подписавшись на push-события
// статуса вместо поллинга.
func waitForIdle(ctx context.Context, a *app, timeout time.Duration) error {
	idle := make(chan struct{}, 1)
	off := a.engine.On(models.EventSync, func(event models.SyncEvent) {
		if status, ok := event.Payload.(models.SyncStatus); ok {
			if status.PendingChanges == 0 && status.State != "Syncing" {
				select {
				case idle <- struct{}{}:
				default:
				}
			}
		}
	})
	defer off()

	// Очередь могла быть пуста еще до подписки
	if a.engine.Status().PendingChanges == 0 {
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-idle:
		return nil
	case <-timer.C:
		return fmt.Errorf("queue did not drain within %s", timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func newSaveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save a resource locally (queued for sync)",
	}

	var name, area string
	subjectCmd := &cobra.Command{
		Use:   "subject <id>",
		Short: "Save a subject to the user's list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				return a.dataSvc.SaveSubject(ctx, api.Subject{ID: args[0], Name: name, Area: area})
			})
		},
	}
	subjectCmd.Flags().StringVar(&name, "name", "", "Subject name")
	subjectCmd.Flags().StringVar(&area, "area", "", "Subject area")

	var title, field string
	careerCmd := &cobra.Command{
		Use:   "career <id>",
		Short: "Save a career to the user's list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				return a.dataSvc.SaveCareer(ctx, api.Career{ID: args[0], Title: title, Field: field})
			})
		},
	}
	careerCmd.Flags().StringVar(&title, "title", "", "Career title")
	careerCmd.Flags().StringVar(&field, "field", "", "Career field")

	cmd.AddCommand(subjectCmd, careerCmd)
	return cmd
}

func newRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove a saved resource (queued for sync)",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "subject <id>",
			Short: "Remove a saved subject",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
					return a.dataSvc.RemoveSavedSubject(ctx, args[0])
				})
			},
		},
		&cobra.Command{
			Use:   "career <id>",
			Short: "Remove a saved career",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
					return a.dataSvc.RemoveSavedCareer(ctx, args[0])
				})
			},
		},
	)
	return cmd
}

func newSetPrefCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-pref <name> <value>",
		Short: "Set a user preference (queued for sync)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				return a.dataSvc.SetPreference(ctx, args[0], args[1])
			})
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List locally cached saved items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				subjects, err := a.dataSvc.SavedSubjects()
				if err != nil {
					return err
				}
				careers, err := a.dataSvc.SavedCareers()
				if err != nil {
					return err
				}

				fmt.Printf("Saved subjects (%d):\n", len(subjects))
				for _, s := range subjects {
					fmt.Printf("  %s  %s\n", s.ID, s.Name)
				}
				fmt.Printf("Saved careers (%d):\n", len(careers))
				for _, c := range careers {
					fmt.Printf("  %s  %s\n", c.ID, c.Title)
				}
				return nil
			})
		},
	}
}

// withApp собирает зависимости, выполняет fn и закрывает движок.
func withApp(ctx context.Context, fn func(context.Context, *app) error) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(ctx, a)
}
