package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vitalcoach/coach-api/internal/domain"
)

func (a *app) printTargets(t domain.Targets) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Daily targets (%s):\n", t.Source)
	fmt.Fprintf(&b, "  calories   %d kcal\n", t.TargetCalories)
	fmt.Fprintf(&b, "  protein    %d g\n", t.ProteinG)
	fmt.Fprintf(&b, "  carbs      %d g\n", t.CarbsG)
	fmt.Fprintf(&b, "  fat        %d g\n", t.FatG)
	fmt.Fprintf(&b, "  hydration  %d ml\n", t.HydrationMl)
	fmt.Fprintf(&b, "  sleep      %g h\n", t.SleepHours)
	if t.RestingHeartRate != nil {
		fmt.Fprintf(&b, "  resting HR %d bpm\n", *t.RestingHeartRate)
	}
	if t.MaxHeartRate != nil {
		fmt.Fprintf(&b, "  max HR     %d bpm\n", *t.MaxHeartRate)
	}
	_, err := fmt.Fprint(a.out, b.String())
	return err
}

func newTargetsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "targets",
		Short: "Show, override or reset the daily targets",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the current targets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.printTargets(a.repo.Targets())
		},
	}

	var (
		calories, protein, carbs, fat, hydration, resting, maxHR int
		sleep                                                    float64
	)
	override := &cobra.Command{
		Use:   "override",
		Short: "Set targets by hand; they survive profile edits that do not change the body metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := cmd.Flags()
			t := a.repo.Targets()
			setInt := func(flag string, dst *int, v int) {
				if f.Changed(flag) {
					*dst = v
				}
			}
			setInt("calories", &t.TargetCalories, calories)
			setInt("protein", &t.ProteinG, protein)
			setInt("carbs", &t.CarbsG, carbs)
			setInt("fat", &t.FatG, fat)
			setInt("hydration", &t.HydrationMl, hydration)
			if f.Changed("sleep") {
				t.SleepHours = sleep
			}
			if f.Changed("resting-hr") {
				t.RestingHeartRate = &resting
			}
			if f.Changed("max-hr") {
				t.MaxHeartRate = &maxHR
			}
			if err := a.repo.OverrideTargets(cmd.Context(), t); err != nil {
				return err
			}
			return a.printTargets(a.repo.Targets())
		},
	}
	f := override.Flags()
	f.IntVar(&calories, "calories", 0, "daily calories (kcal)")
	f.IntVar(&protein, "protein", 0, "protein (g)")
	f.IntVar(&carbs, "carbs", 0, "carbohydrates (g)")
	f.IntVar(&fat, "fat", 0, "fat (g)")
	f.IntVar(&hydration, "hydration", 0, "water (ml)")
	f.Float64Var(&sleep, "sleep", 0, "sleep (hours)")
	f.IntVar(&resting, "resting-hr", 0, "resting heart rate (bpm)")
	f.IntVar(&maxHR, "max-hr", 0, "max heart rate (bpm)")

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Drop an override and recompute targets from the profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := a.repo.ResetTargets(cmd.Context())
			if err != nil {
				return err
			}
			return a.printTargets(t)
		},
	}

	cmd.AddCommand(show, override, reset)
	return cmd
}

func newOnboardingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "onboarding key=answer...",
		Short: "Record onboarding answers",
		Long: `Record onboarding answers. Answers to blood_type, chronotype, reproductive_status,
known_conditions, supplements, food_dislikes and budget_notes also update the advanced
profile. List answers are comma-separated.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			answers := make([]domain.OnboardingAnswer, 0, len(args))
			for _, arg := range args {
				k, v, ok := strings.Cut(arg, "=")
				if !ok {
					return fmt.Errorf("answer %q must look like key=answer", arg)
				}
				answers = append(answers, domain.OnboardingAnswer{QuestionKey: k, Answer: v})
			}
			if err := a.repo.SubmitOnboarding(cmd.Context(), answers); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Recorded %d answer(s).\n", len(answers))
			return nil
		},
	}
}
