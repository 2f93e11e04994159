package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fastygo/taskflow/internal/services"
	"github.com/fastygo/taskflow/internal/services/lifecycle"
	"github.com/fastygo/taskflow/pkg/deadline"
	"github.com/fastygo/taskflow/usecase/task"
)

func (c *cli) signupCmd() *cobra.Command {
	var email, password, name string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := readSecret(cmd, password)
			if err != nil {
				return err
			}
			u, err := c.app.Session.SignUp(ctxOf(cmd), email, secret, name)
			if err != nil {
				return err
			}
			return c.printer.User(u)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password (at least 6 characters)")
	cmd.Flags().StringVar(&name, "name", "", "Full name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (c *cli) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := readSecret(cmd, password)
			if err != nil {
				return err
			}
			u, err := c.app.Session.SignIn(ctxOf(cmd), email, secret)
			if err != nil {
				return err
			}
			return c.printer.User(u)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Session.SignOut(ctxOf(cmd)); err != nil {
				return err
			}
			c.printer.Message("Signed out.")
			return nil
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u := c.app.Session.User()
			if u == nil {
				return errNotSignedIn
			}
			return c.printer.User(u)
		},
	}
}

func (c *cli) renameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename [full name]",
		Short: "Change your display name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := c.app.Session.CurrentUser(); !ok {
				return errNotSignedIn
			}
			u, err := c.app.Profiles.UpdateFullName(ctxOf(cmd), c.app.Session.AccessToken(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return c.printer.User(u)
		},
	}
}

func (c *cli) listCmd() *cobra.Command {
	var open bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List your tasks, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.requireTasks(); err != nil {
				return err
			}
			views := c.app.Tasks.Views(c.app.Clock().In(c.app.Location))
			if open {
				kept := views[:0]
				for _, v := range views {
					if !v.Completed {
						kept = append(kept, v)
					}
				}
				views = kept
			}
			return c.printer.Tasks(views)
		},
	}
	cmd.Flags().BoolVar(&open, "open", false, "Hide completed tasks")
	return cmd
}

func (c *cli) addCmd() *cobra.Command {
	var due string
	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.requireTasks(); err != nil {
				return err
			}
			deadlineAt, err := deadline.Parse(due, c.app.Location)
			if err != nil {
				return err
			}
			created, err := c.app.Tasks.Add(ctxOf(cmd), strings.Join(args, " "), deadlineAt)
			if err != nil {
				return err
			}
			c.printer.Message("Added %s.", shortID(created.ID))
			return c.printer.Task(c.app.view(*created))
		},
	}
	cmd.Flags().StringVar(&due, "due", "", "Deadline, e.g. 2026-03-11T17:00")
	return cmd
}

func (c *cli) toggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "toggle [id]",
		Aliases: []string{"done"},
		Short:   "Mark a task done, or open again",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.requireTasks(); err != nil {
				return err
			}
			t, err := c.app.resolve(args[0])
			if err != nil {
				return err
			}
			updated, err := c.app.Tasks.ToggleComplete(ctxOf(cmd), t)
			if err != nil {
				return err
			}
			return c.printer.Task(c.app.view(*updated))
		},
	}
}

func (c *cli) editCmd() *cobra.Command {
	var title, due string
	var clearDue bool
	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Change a task's title or deadline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.requireTasks(); err != nil {
				return err
			}
			t, err := c.app.resolve(args[0])
			if err != nil {
				return err
			}

			newTitle := t.Title
			if cmd.Flags().Changed("title") {
				newTitle = title
			}
			newDue := t.Deadline
			switch {
			case clearDue:
				newDue = nil
			case cmd.Flags().Changed("due"):
				if newDue, err = deadline.Parse(due, c.app.Location); err != nil {
					return err
				}
			}

			c.app.Tasks.StartEdit(t.ID)
			updated, err := c.app.Tasks.Edit(ctxOf(cmd), t.ID, newTitle, newDue)
			if err != nil {
				return err
			}
			return c.printer.Task(c.app.view(*updated))
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&due, "due", "", "New deadline, e.g. 2026-03-11T17:00 (empty clears)")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "Remove the deadline")
	return cmd
}

func (c *cli) removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm [id]",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.requireTasks(); err != nil {
				return err
			}
			t, err := c.app.resolve(args[0])
			if err != nil {
				return err
			}
			if err := c.app.Tasks.Remove(ctxOf(cmd), t.ID); err != nil {
				return err
			}
			c.printer.Message("Deleted %q.", t.Title)
			return nil
		},
	}
}

func (c *cli) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show completion statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.requireTasks(); err != nil {
				return err
			}
			return c.printer.Stats(c.app.Tasks.Stats())
		},
	}
}

func (c *cli) watchCmd() *cobra.Command {
	var schedule string
	var once bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep checking deadlines and report tasks that become due",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.requireTasks(); err != nil {
				return err
			}
			if schedule == "" {
				schedule = c.app.Config.ReminderSchedule
			}

			reminder, err := services.NewReminder(
				viewSource{manager: c.app.Tasks, loc: c.app.Location},
				c.alert,
				c.app.Clock,
				c.app.Logger,
				services.ReminderConfig{Schedule: schedule, Timeout: c.app.Config.RequestTimeout},
			)
			if err != nil {
				return fmt.Errorf("invalid schedule %q: %w", schedule, err)
			}

			if _, err := reminder.Check(ctxOf(cmd)); err != nil {
				c.app.Logger.Warn("initial deadline check failed", zap.Error(err))
			}
			if once {
				return nil
			}

			ctx, cancel := context.WithCancel(ctxOf(cmd))
			defer cancel()
			shutdown := lifecycle.New(5*time.Second, c.app.Logger)
			stop := shutdown.Listen(cancel)
			defer stop()

			reminder.Start()
			shutdown.Register("reminder", func(ctx context.Context) error {
				reminder.Stop(ctx)
				return nil
			})
			c.printer.Message("Watching deadlines (%s), press Ctrl+C to stop.", schedule)

			<-ctx.Done()
			return shutdown.Shutdown(context.Background())
		},
	}
	cmd.Flags().StringVar(&schedule, "schedule", "", "Cron schedule, e.g. \"@every 5m\" or \"0 9 * * *\"")
	cmd.Flags().BoolVar(&once, "once", false, "Check once and exit")
	return cmd
}

func (c *cli) alert(a services.Alert) {
	if c.printer.Structured() {
		_ = c.printer.Task(a.Task)
		return
	}
	fmt.Fprintf(c.printer.w, "%s  %s: %s\n", c.app.Clock().In(c.app.Location).Format("15:04"), a.Task.Title, a.Task.Remaining.Label)
}

// viewSource classifies deadlines in the user's location.
type viewSource struct {
	manager *task.Manager
	loc     *time.Location
}

func (s viewSource) Refresh(ctx context.Context) error {
	return s.manager.Refresh(ctx)
}

func (s viewSource) Views(now time.Time) []task.View {
	return s.manager.Views(now.In(s.loc))
}
