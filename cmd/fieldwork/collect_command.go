package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"fieldwork/internal/session"
	"fieldwork/internal/store"
	"fieldwork/internal/survey"
)

func newCollectCommand(ctx *commandContext) *cobra.Command {
	var surveyID string
	var questionsPath string
	var answersPath string
	var notes string

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Run one survey collection session",
		Long:  "Walks a question list, records answers with verification metadata, and stores the completed packet locally for a later sync. Answers come from --answers (scripted) or interactive prompts.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			questions, err := survey.LoadQuestions(questionsPath)
			if err != nil {
				return err
			}

			var script map[string]any
			if answersPath != "" {
				data, err := os.ReadFile(answersPath)
				if err != nil {
					return fmt.Errorf("read answers file: %w", err)
				}
				if err := json.Unmarshal(data, &script); err != nil {
					return fmt.Errorf("parse answers file: %w", err)
				}
			}

			id := strings.TrimSpace(surveyID)
			if id == "" {
				id = "survey-" + uuid.NewString()
			}

			logger := quietLogger()
			st := store.Open(cfg, logger)
			defer st.Close()

			recorder := newRecorder(cfg, logger)
			controller, err := session.NewController(id, questions, recorder, st, logger)
			if err != nil {
				return err
			}
			if err := controller.Start(cmd.Context()); err != nil {
				return err
			}

			if script != nil {
				err = runScripted(cmd, controller, script)
			} else {
				err = runInteractive(cmd, controller)
			}
			if err != nil {
				controller.Abandon()
				return err
			}

			if notes != "" {
				controller.SetNotes(notes)
			}

			packet, err := controller.Complete(cmd.Context())
			if err != nil {
				controller.Abandon()
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Survey %s stored (%d answer(s), sync status %s)\n",
				packet.SurveyID, packet.AnswerCount(), packet.SyncStatus)
			if packet.Verification != nil {
				fmt.Fprintf(out, "Verification: %d location sample(s), hash %s\n",
					len(packet.Verification.LocationHistory), packet.Verification.VerificationHash)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&surveyID, "id", "", "Survey identifier (generated when empty)")
	cmd.Flags().StringVar(&questionsPath, "questions", "", "Path to a question list JSON file")
	cmd.Flags().StringVar(&answersPath, "answers", "", "Path to a JSON map of question id to answer")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-text notes attached to the packet")
	_ = cmd.MarkFlagRequired("questions")
	return cmd
}

func runScripted(cmd *cobra.Command, controller *session.Controller, script map[string]any) error {
	for {
		question := controller.Current()
		if value, ok := script[question.ID]; ok {
			controller.RecordAnswer(cmd.Context(), value)
		}
		if !controller.CanAdvance() {
			return fmt.Errorf("required question %q has no answer in the script", question.ID)
		}
		if controller.AtEnd() {
			return nil
		}
		controller.Advance()
	}
}

func runInteractive(cmd *cobra.Command, controller *session.Controller) error {
	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())

	for {
		question := controller.Current()
		fmt.Fprintf(out, "[%d/%d] %s", controller.Index()+1, controller.Len(), question.Prompt)
		if !question.Required {
			fmt.Fprint(out, " (optional, enter to skip)")
		}
		fmt.Fprintln(out)
		for i, option := range question.Options {
			fmt.Fprintf(out, "  %d) %s\n", i+1, option)
		}
		fmt.Fprint(out, "> ")

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read answer: %w", err)
			}
			return fmt.Errorf("input closed before question %q was answered", question.ID)
		}
		answer := strings.TrimSpace(scanner.Text())

		if answer != "" {
			controller.RecordAnswer(cmd.Context(), resolveChoice(question, answer))
		}
		if !controller.CanAdvance() {
			fmt.Fprintln(out, "An answer is required.")
			continue
		}
		if controller.AtEnd() {
			return nil
		}
		controller.Advance()
	}
}

// resolveChoice maps a 1-based option number to its option text for
// multiple-choice questions; any other input passes through verbatim.
func resolveChoice(question survey.Question, answer string) any {
	if question.Type != survey.QuestionMultipleChoice {
		return answer
	}
	if idx, err := strconv.Atoi(answer); err == nil && idx >= 1 && idx <= len(question.Options) {
		return question.Options[idx-1]
	}
	return answer
}
