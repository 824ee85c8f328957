package lesson

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/nalibo/nalibopath/internal/course"
	"github.com/nalibo/nalibopath/internal/curriculum"
	"github.com/nalibo/nalibopath/internal/exercise"
	"github.com/nalibo/nalibopath/internal/progress"
	"github.com/nalibo/nalibopath/internal/ui/components"
	"github.com/nalibo/nalibopath/internal/ui/layout"
	"github.com/nalibo/nalibopath/internal/ui/theme"
)

var (
	restoreEnergy  = fmt.Sprintf("RESTORE ENERGY (%d 💎)", progress.ReviveCost)
	backToOverview = "BACK TO OVERVIEW"
)

func (s *LessonScreen) View(width, height int) string {
	run := s.ctrl.Lesson()
	cw := components.ContentWidth(width)

	mode := s.ctrl.Mode()
	if run == nil && mode != course.ModeGameOver {
		mode = course.ModeMap
	}

	var body string
	switch mode {
	case course.ModeObjectives:
		body = s.renderObjectives(run.Lesson(), cw)
	case course.ModeStory:
		body = s.renderStory(run.Lesson(), cw)
	case course.ModeVocab:
		body = s.renderVocab(run.Lesson(), cw)
	case course.ModeExercise:
		body = s.renderExercise(cw)
	case course.ModeFinished:
		body = s.renderFinished(cw)
	case course.ModeGameOver:
		body = s.renderGameOver(cw)
	default:
		body = theme.Hint.Render("Returning to the path...")
	}

	if s.notice != "" {
		body += "\n" + theme.Hint.Render(s.notice)
	}
	return layout.Center(body, width, height)
}

func (s *LessonScreen) renderObjectives(l curriculum.Lesson, cw int) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render(l.Icon + "  " + l.Title))
	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Render(string(l.Level)))
	b.WriteString("\n\n")

	var goals strings.Builder
	for _, c := range l.CanDo {
		goals.WriteString(theme.Correct.Render("✓ ") + theme.Body.Render(c) + "\n")
	}
	if l.GrammarFocus != "" {
		goals.WriteString("\n" + theme.Hint.Render("Focus: "+l.GrammarFocus))
	}
	b.WriteString(components.TitledCard("Lesson Objectives", strings.TrimRight(goals.String(), "\n"), cw))
	b.WriteString("\n\n")
	b.WriteString(components.Button("START MODULE", true))
	return b.String()
}

func (s *LessonScreen) renderStory(l curriculum.Lesson, cw int) string {
	inner := cw - 6
	var b strings.Builder
	b.WriteString(components.TitledCard("Interpretive Reading", layout.Wrap(l.Story, inner), cw))
	b.WriteString("\n")
	if l.LinguisticNote.Description != "" {
		title := "Conlang Note"
		if l.LinguisticNote.Title != "" {
			title += ": " + l.LinguisticNote.Title
		}
		b.WriteString(components.TitledCard(title, layout.Wrap(l.LinguisticNote.Description, inner), cw))
		b.WriteString("\n")
	}
	if l.ComparisonNote != "" {
		b.WriteString(components.TitledCard("Contrastive Analysis", layout.Wrap(l.ComparisonNote, inner), cw))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(components.Button("PREVIEW VOCABULARY", true))
	return b.String()
}

func (s *LessonScreen) renderVocab(l curriculum.Lesson, cw int) string {
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)
	var rows strings.Builder
	for i, w := range l.Vocab {
		prefix := "  "
		word := theme.Nalibo.Render(w.Nalibo)
		if i == s.vocabCursor {
			prefix = theme.Selected.Render("▸ ")
		}
		rows.WriteString(prefix + word + "  " + theme.Body.Render(w.English))
		if w.IPA != "" {
			rows.WriteString("  " + dim.Render(w.IPA))
		}
		rows.WriteString("\n")
		if i == s.vocabCursor && w.PronunciationGuide != "" {
			rows.WriteString("    " + theme.Hint.Render(w.PronunciationGuide) + "\n")
		}
	}
	if len(l.Vocab) == 0 {
		rows.WriteString(theme.Hint.Render("No new words in this module."))
	}

	var b strings.Builder
	b.WriteString(components.TitledCard("New Vocabulary", strings.TrimRight(rows.String(), "\n"), cw))
	b.WriteString("\n\n")
	b.WriteString(components.Button("PROCEED TO EXERCISES", true))
	return b.String()
}

func (s *LessonScreen) renderExercise(cw int) string {
	sess := s.session
	run := s.ctrl.Lesson()
	if sess == nil || run == nil {
		return ""
	}
	ex := sess.Exercise()
	status := sess.Status()

	var b strings.Builder
	b.WriteString(components.NewProgressBar(run.Index(), run.Total(), cw).View())
	b.WriteString("\n\n")
	b.WriteString(theme.Hint.Render(typeLabel(ex.Type)))
	b.WriteString("\n")
	b.WriteString(theme.Body.Bold(true).Render(layout.Wrap(ex.Prompt, cw)))
	b.WriteString("\n\n")

	switch ex.Type {
	case curriculum.MultipleChoice:
		b.WriteString(s.choice.View(components.ChoiceState{
			Chosen:  sess.ChosenOption(),
			Graded:  status != exercise.StatusIdle,
			Correct: ex.CorrectAnswer,
		}))
	case curriculum.SentenceBuilder, curriculum.DragAndDrop:
		b.WriteString(components.AnswerLine(sess.Selected(), "Place words to build your answer"))
		b.WriteString("\n\n")
		b.WriteString(s.bank.View(sess.Selected(), status == exercise.StatusIdle))
	case curriculum.Matching:
		b.WriteString(s.renderMatching(sess, cw))
	case curriculum.Speaking:
		b.WriteString(theme.Nalibo.Render(ex.CorrectAnswer))
		b.WriteString("\n\n")
		switch {
		case s.recording:
			b.WriteString(theme.Incorrect.Render("● Recording..."))
		case sess.HasRecording():
			b.WriteString(theme.Correct.Render("✓ Recording ready"))
		default:
			b.WriteString(theme.Hint.Render("Press r to record yourself saying the phrase."))
		}
	default:
		b.WriteString(s.input.View())
	}
	b.WriteString("\n\n")

	switch {
	case s.busy && status == exercise.StatusIdle:
		b.WriteString(theme.Hint.Render("Checking with your tutor..."))
	case status != exercise.StatusIdle:
		b.WriteString(s.renderVerdict(sess, cw))
	case ex.Type != curriculum.Matching:
		b.WriteString(components.Button("CHECK", sess.CanSubmit()))
	}
	return b.String()
}

func (s *LessonScreen) renderVerdict(sess *exercise.Session, cw int) string {
	heading := theme.Correct.Render("Correct!")
	if sess.Status() == exercise.StatusIncorrect {
		heading = theme.Incorrect.Render("Not quite")
	}
	feedback := strings.ReplaceAll(sess.Feedback(), "**", "")
	return components.Card(heading+"\n"+layout.Wrap(feedback, cw-6), cw) +
		"\n" + components.Button("CONTINUE", true)
}

func (s *LessonScreen) renderMatching(sess *exercise.Session, cw int) string {
	pendingLeft, pendingRight := sess.Pending()
	colWidth := max((cw-4)/2, 12)

	cell := func(v string, left bool, i int) string {
		cursor := left == (s.column == 0) && ((left && i == s.leftCursor) || (!left && i == s.rightCursor))
		style := theme.Chip.Width(colWidth)
		switch {
		case s.flash != nil && ((left && v == s.flash.left) || (!left && v == s.flash.right)):
			if s.flash.ok {
				style = style.BorderForeground(theme.Success).Foreground(theme.Success)
			} else {
				style = style.BorderForeground(theme.Error).Foreground(theme.Error)
			}
		case sess.IsMatched(v, left):
			style = theme.ChipUsed.Width(colWidth)
		case (left && v == pendingLeft) || (!left && v == pendingRight):
			style = theme.ChipActive.Width(colWidth).BorderForeground(theme.Secondary)
		case cursor:
			style = theme.ChipActive.Width(colWidth)
		}
		return style.Render(v)
	}

	left := make([]string, 0, len(s.leftCol))
	for i, v := range s.leftCol {
		left = append(left, cell(v, true, i))
	}
	right := make([]string, 0, len(s.rightCol))
	for i, v := range s.rightCol {
		right = append(right, cell(v, false, i))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.JoinVertical(lipgloss.Left, left...),
		"  ",
		lipgloss.JoinVertical(lipgloss.Left, right...),
	)
}

func (s *LessonScreen) renderFinished(cw int) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render("🏆 Module Mastered!"))
	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Render("Your understanding of Nalibo structure is progressing."))
	b.WriteString("\n\n")

	if run := s.ctrl.Lesson(); run != nil {
		if r := run.Reward(); r != nil {
			stats := lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).Render(fmt.Sprintf("+%d XP", r.XPGained)) +
				"    " +
				lipgloss.NewStyle().Foreground(theme.Gem).Bold(true).Render(fmt.Sprintf("+%d 💎", r.GemsGained))
			if r.Perfect {
				stats += "\n\n" + theme.Correct.Render("Perfect run!")
			}
			b.WriteString(components.Card(stats, min(cw, 40)))
			b.WriteString("\n\n")
		}
	}
	b.WriteString(components.Button("CONTINUE TO PATH", true))
	return b.String()
}

func (s *LessonScreen) renderGameOver(cw int) string {
	var b strings.Builder
	b.WriteString(theme.Title.Foreground(theme.Heart).Render("💔 Session Ended"))
	b.WriteString("\n\n")
	b.WriteString(layout.Wrap(theme.Subtitle.Render("You have exhausted your current learning energy. Review your notes and try again."), cw))
	b.WriteString("\n\n")
	b.WriteString(s.overMenu.View())
	return b.String()
}

func typeLabel(t curriculum.ExerciseType) string {
	switch t {
	case curriculum.SentenceBuilder:
		return "Build the sentence"
	case curriculum.MultipleChoice:
		return "Choose the answer"
	case curriculum.DragAndDrop:
		return "Fill the gap"
	case curriculum.Matching:
		return "Match the pairs"
	case curriculum.Speaking:
		return "Say it aloud"
	case curriculum.Translation:
		return "Translate"
	case curriculum.InterpersonalChat:
		return "Reply in Nalibo"
	}
	return string(t)
}
