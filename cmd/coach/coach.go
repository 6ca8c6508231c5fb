package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vitalcoach/coach-api/internal/adapters/gemini"
	memactivityrepo "github.com/vitalcoach/coach-api/internal/adapters/memory/activityrepo"
	memgenerator "github.com/vitalcoach/coach-api/internal/adapters/memory/generator"
	"github.com/vitalcoach/coach-api/internal/app/activity"
	"github.com/vitalcoach/coach-api/internal/app/coachcontext"
	"github.com/vitalcoach/coach-api/internal/app/plans"
	"github.com/vitalcoach/coach-api/internal/domain"
	generatorport "github.com/vitalcoach/coach-api/internal/ports/out/generator"
)

// localUser is the single user a device-local repository holds.
const localUser domain.UserID = "local"

func (a *app) renderMarkdown(md string) error {
	if a.raw {
		_, err := fmt.Fprintln(a.out, strings.TrimRight(md, "\n"))
		return err
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return err
	}
	out, err := r.Render(md)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(a.out, out)
	return err
}

func newContextCmd(a *app) *cobra.Command {
	var notes string
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Print the coach context built from the local profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := a.repo.Snapshot(cmd.Context(), localUser)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.out, coachcontext.Build(coachcontext.Input{
				Profile:  b.Profile,
				Targets:  b.Targets,
				Advanced: b.Advanced,
				Notes:    coachcontext.TruncateNotes(notes),
				Now:      a.clk.Now(),
			}))
			return err
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "free-text notes to include")
	return cmd
}

func (a *app) localGenerator(ctx context.Context) (generatorport.Generator, error) {
	if a.cfg.LLM.Provider == "genai" {
		return gemini.New(ctx, a.cfg.LLM.APIKey, a.cfg.LLM.Model)
	}
	return memgenerator.NewCanned(), nil
}

// generateLocally runs a generation against the local profile. The device keeps no activity
// log, so the snapshot is empty.
func (a *app) generateLocally(ctx context.Context, notes, message string) (string, error) {
	gen, err := a.localGenerator(ctx)
	if err != nil {
		return "", err
	}
	svc := plans.NewService(a.repo, activity.NewAggregator(memactivityrepo.NewRepo(), a.logger, nil), gen, plans.Options{
		Clock:         a.clk,
		Logger:        a.logger,
		Timeout:       a.cfg.LLM.Timeout,
		ActivityLimit: a.cfg.Activity.PerDomainLimit,
	})
	defer svc.Wait()

	var res plans.Result
	if message != "" {
		res, err = svc.Reply(ctx, localUser, plans.ReplyInput{Message: message, Notes: notes})
	} else {
		res, err = svc.GeneratePlan(ctx, localUser, plans.GeneratePlanInput{Notes: notes})
	}
	return res.Content, err
}

func newPlanCmd(a *app) *cobra.Command {
	var notes, reply string
	var local bool
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate a plan, or a coach reply with --reply",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if a.remote == nil || local {
				content, err := a.generateLocally(ctx, notes, reply)
				if err != nil {
					return err
				}
				return a.renderMarkdown(content)
			}

			// The remote plans from its own copy of the profile; make sure it has ours.
			if err := a.repo.Flush(ctx); err != nil {
				return err
			}
			if reply != "" {
				content, err := a.remote.CoachReply(ctx, reply, notes)
				if err != nil {
					return err
				}
				return a.renderMarkdown(content)
			}
			resp, err := a.remote.GeneratePlan(ctx, notes, uuid.NewString())
			if err != nil {
				return err
			}
			return a.renderMarkdown(resp.Plan)
		},
	}
	f := cmd.Flags()
	f.StringVar(&notes, "notes", "", "free-text notes for the coach")
	f.StringVar(&reply, "reply", "", "send a check-in message instead of asking for a plan")
	f.BoolVar(&local, "local", false, "generate on this device even when a remote is configured")
	return cmd
}

func newSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Push pending local changes and pull the remote profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.remote == nil {
				return errors.New("no remote configured (set COACH_REMOTE_URL or device.remote_base_url)")
			}
			err := a.repo.Foreground(cmd.Context())

			states := a.repo.States()
			names := make([]string, 0, len(states))
			for n := range states {
				names = append(names, n)
			}
			sort.Strings(names)
			for _, n := range names {
				fmt.Fprintf(a.out, "%-30s %s\n", n, states[n])
			}
			if a.repo.PendingPush() {
				fmt.Fprintln(a.out, "Local changes are still waiting to be pushed.")
			}
			return err
		},
	}
}
