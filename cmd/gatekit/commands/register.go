package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gatherkit/gatekit/internal/audit"
	"github.com/gatherkit/gatekit/internal/forms"
	"github.com/gatherkit/gatekit/internal/log"
	"github.com/gatherkit/gatekit/internal/ui"
	"github.com/gatherkit/gatekit/internal/validation"
	"github.com/gatherkit/gatekit/pkg/types"
)

var registerEventID string

// registerCmd represents the register command
var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Fill out an event's registration form",
	Long: `Fetch the event's active registration form and fill it out field by
field. Conditional fields appear and disappear as answers change, answers
are autosaved as a draft while typing pauses, and a saved draft from an
earlier session is restored on start.

Examples:
  gatekit register --event 3f0b6a02-8f9e-4a43-b1d4-2a9c86a3d111`,
	RunE: runRegister,
}

func init() {
	rootCmd.AddCommand(registerCmd)

	registerCmd.Flags().StringVar(&registerEventID, "event", "", "event id (required)")
	_ = registerCmd.MarkFlagRequired("event")
}

// auditedSaver records every draft save attempt in the audit trail.
type auditedSaver struct {
	saver   forms.DraftSaver
	auditor *audit.Logger
}

func (a auditedSaver) SaveDraft(ctx context.Context, formID string, data types.AnswerSet) error {
	err := a.saver.SaveDraft(ctx, formID, data)
	a.auditor.LogDraftSave(formID, err)
	return err
}

func runRegister(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := validation.NewValidator().ValidateEventID(registerEventID); err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	mgr, err := openSessionManager(store)
	if err != nil {
		return err
	}
	sess, err := currentSession(mgr, cfg)
	if err != nil {
		return err
	}

	auditor, err := openAuditLogger(cfg)
	if err != nil {
		return err
	}
	defer auditor.Close()

	client := newAPIClient(cfg, sess)
	ctx := cmd.Context()

	form, err := client.ActiveForm(ctx, registerEventID)
	if err != nil {
		return fmt.Errorf("failed to fetch the active form: %w", err)
	}
	if err := forms.ValidateForm(form); err != nil {
		return fmt.Errorf("the platform served a malformed form: %w", err)
	}

	// a saved draft beats identity prefill, and losing it is not fatal
	draft, err := client.Draft(ctx, form.ID)
	if err != nil {
		log.Warnf("failed to fetch draft, starting fresh: %v", err)
		draft = nil
	}
	answers := forms.InitialAnswers(form, draft, &sess.Identity)

	fsession := forms.NewSession(form,
		forms.WithInitialAnswers(answers),
		forms.WithAutoSave(auditedSaver{client, auditor}, cfg.Forms.AutosaveDebounce),
	)
	defer fsession.Close()

	prompter := stdPrompter()
	prompter.Info("Registration for event %s (form v%d)", registerEventID, form.Version)
	if len(draft) > 0 {
		prompter.Info("Restored a saved draft.")
	}

	for {
		if err := promptVisibleFields(prompter, fsession); err != nil {
			return err
		}

		showSummary(prompter, fsession)
		confirmed, err := prompter.Confirm("Submit?", true)
		if err != nil {
			return err
		}
		if !confirmed {
			continue
		}

		err = fsession.Submit(ctx, client)
		auditor.LogSubmit(form.ID, err)
		if err == nil {
			prompter.Success("Registration submitted")
			return nil
		}

		var verr *forms.ValidationError
		if errors.As(err, &verr) {
			for _, fe := range verr.Fields {
				prompter.Error("%s: %s", fe.Field, fe.Error)
			}
			prompter.Info("Please complete the highlighted fields.")
			continue
		}
		return fmt.Errorf("submission failed: %w", err)
	}
}

// promptVisibleFields walks the form top to bottom, re-reading visibility
// after every answer so rule-driven fields appear as soon as their trigger
// is satisfied.
func promptVisibleFields(prompter *ui.Prompter, fsession *forms.Session) error {
	asked := make(map[string]bool)
	for {
		field, ok := nextUnasked(fsession, asked)
		if !ok {
			return nil
		}
		asked[field.ID] = true

		value, err := prompter.PromptField(field, fsession.Required(field), fsession.Answers()[field.ID])
		if err != nil {
			return fmt.Errorf("failed to read answer: %w", err)
		}
		if value != nil {
			fsession.SetAnswer(field.ID, value)
		}
	}
}

func nextUnasked(fsession *forms.Session, asked map[string]bool) (types.FormField, bool) {
	for _, field := range fsession.VisibleFields() {
		if !asked[field.ID] {
			return field, true
		}
	}
	return types.FormField{}, false
}

func showSummary(prompter *ui.Prompter, fsession *forms.Session) {
	prompter.Info("")
	prompter.Info("Summary:")
	answers := fsession.Answers()
	for _, field := range fsession.VisibleFields() {
		value, ok := answers[field.ID]
		if !ok || value == nil || value == "" {
			value = "-"
		}
		prompter.Info("  %s: %v", field.Label, value)
	}
}
