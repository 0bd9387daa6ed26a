package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/hrtlog/internal/domain"
)

// parseMedication reads NAME[:DOSE[:UNIT[:ROUTE]]].
func parseMedication(s string) (domain.Medication, error) {
	parts := strings.Split(s, ":")
	if len(parts) > 4 {
		return domain.Medication{}, &domain.ValidationError{
			Field:  "medications",
			Reason: fmt.Sprintf("%q has too many fields, expected NAME[:DOSE[:UNIT[:ROUTE]]]", s),
		}
	}
	for len(parts) < 4 {
		parts = append(parts, "")
	}
	m := domain.Medication{
		Name:  strings.TrimSpace(parts[0]),
		Dose:  strings.TrimSpace(parts[1]),
		Unit:  strings.TrimSpace(parts[2]),
		Route: strings.TrimSpace(parts[3]),
	}
	if m.Name == "" {
		return domain.Medication{}, &domain.ValidationError{Field: "medications", Reason: "medication name is empty"}
	}
	return m, nil
}

func newLogDoseCmd(rt *runtime) *cobra.Command {
	var (
		in   domain.DoseInput
		meds []string
	)

	cmd := &cobra.Command{
		Use:   "log-dose",
		Short: "Record a dose",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, s := range meds {
				m, err := parseMedication(s)
				if err != nil {
					return err
				}
				in.Medications = append(in.Medications, m)
			}

			rec, err := rt.store.AddDose(in)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Logged dose %s\n", rec.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Date, "date", "", "Date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&in.Time, "time", "", "Time (HH:MM)")
	cmd.Flags().StringVar(&in.Title, "title", "", "Short title")
	cmd.Flags().StringVar(&in.Mood, "mood", "", "Mood")
	cmd.Flags().StringVar(&in.Symptoms, "symptoms", "", "Symptoms noticed around the dose")
	cmd.Flags().StringVar(&in.Notes, "notes", "", "Free notes")
	cmd.Flags().StringArrayVarP(&meds, "med", "m", nil, "Medication as NAME[:DOSE[:UNIT[:ROUTE]]], repeatable")
	return cmd
}

func newLogSymptomCmd(rt *runtime) *cobra.Command {
	var in domain.SymptomInput

	cmd := &cobra.Command{
		Use:   "log-symptom",
		Short: "Record a symptom check-in",
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := rt.store.AddSymptomEntry(in)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Logged symptom entry %s\n", rec.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Date, "date", "", "Date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&in.Time, "time", "", "Time (HH:MM)")
	cmd.Flags().StringVar(&in.Mood, "mood", "", "Mood")
	cmd.Flags().StringVar(&in.Energy, "energy", "", "Energy level")
	cmd.Flags().StringVar(&in.Sleep, "sleep", "", "Sleep quality")
	cmd.Flags().StringVar(&in.Dysphoria, "dysphoria", "", "Dysphoria")
	cmd.Flags().StringVar(&in.Euphoria, "euphoria", "", "Euphoria")
	cmd.Flags().StringVar(&in.Freeform, "freeform", "", "Free text")
	cmd.Flags().StringVar(&in.ExtraContext, "context", "", "Extra context")
	cmd.Flags().StringSliceVarP(&in.Symptoms, "symptom", "s", nil, "Symptom, repeatable or comma separated")
	cmd.Flags().StringVar(&in.Notes, "notes", "", "Free notes")
	return cmd
}

func newNoteCmd(rt *runtime) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "note [TEXT]",
		Short: "Append to or list the quick symptom log",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if list || len(args) == 0 {
				for _, e := range rt.store.LoadSymptomLog() {
					_, _ = fmt.Fprintf(out, "%s  %s\n", e.Timestamp, e.Symptom)
				}
				return nil
			}

			e, err := rt.store.LogSymptom(args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "Noted at %s\n", e.Timestamp)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&list, "list", "l", false, "List the quick log")
	return cmd
}
