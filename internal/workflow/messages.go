package workflow

import (
	"fmt"

	"github.com/pkazmirchuk/workbot/internal/chat"
)

// Prompt texts are the semantic content the transport renders; wording here
// is the single source for every user-visible message.

func greetingPrompt() chat.Prompt {
	return chat.Prompt{
		Text:           "Hi! Share your phone number to pick a project and create a task.",
		RequestContact: true,
	}
}

func invalidPhonePrompt() chat.Prompt {
	return chat.Prompt{
		Text:           "That phone number does not look valid. Please share it again.",
		RequestContact: true,
	}
}

func projectMissingPrompt() chat.Prompt {
	return chat.Prompt{Text: "That project no longer exists. Pick another one from the list."}
}

func noProjectsPrompt() chat.Prompt {
	return chat.Prompt{
		Text:           "No projects are linked to this phone number.",
		RemoveKeyboard: true,
	}
}

func projectListPrompt(page ProjectPage) chat.Prompt {
	return chat.Prompt{
		Text:     "Choose a project:",
		Keyboard: projectKeyboard(page),
	}
}

func projectKeyboard(page ProjectPage) [][]chat.Button {
	rows := make([][]chat.Button, 0, len(page.Items)+1)
	for _, p := range page.Items {
		rows = append(rows, []chat.Button{{
			Label:   p.Name,
			Payload: chat.SelectProjectPayload(p.ID),
		}})
	}
	var nav []chat.Button
	if page.HasPrev {
		nav = append(nav, chat.Button{Label: "« Prev", Payload: chat.PagePayload(page.Page - 1)})
	}
	if page.HasNext {
		nav = append(nav, chat.Button{Label: "Next »", Payload: chat.PagePayload(page.Page + 1)})
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	return rows
}

func taskNamePrompt(projectName string) chat.Prompt {
	return chat.Prompt{
		Text:           fmt.Sprintf("You picked project %q. Enter the task name (up to 45 characters):", projectName),
		RemoveKeyboard: true,
	}
}

func descriptionPrompt() chat.Prompt {
	return chat.Prompt{Text: "Enter the task description (up to 150 characters):"}
}

func photoPrompt() chat.Prompt {
	return chat.Prompt{Text: `Attach a photo (up to 5 MB), or send "skip" to finish without one.`}
}

func retryPrompt(reason string) chat.Prompt {
	return chat.Prompt{Text: reason + ". Please try again."}
}

func photoFailedPrompt() chat.Prompt {
	return chat.Prompt{Text: `Could not accept that photo. Send a smaller one (up to 5 MB), or send "skip".`}
}

func remoteFailedPrompt() chat.Prompt {
	return chat.Prompt{
		Text:           "The task could not be created in the tracker. Nothing was saved; share your phone number to start over.",
		RequestContact: true,
	}
}

func remoteCreatedPrompt(taskName string) chat.Prompt {
	return chat.Prompt{Text: fmt.Sprintf("Task %q was created in the tracker.", taskName)}
}

func localSaveFailedPrompt() chat.Prompt {
	return chat.Prompt{
		Text:           "Heads up: the task exists in the tracker but could not be saved to the local records. The team has been notified.",
		RequestContact: true,
	}
}

func completedPrompt(taskName, leader string) chat.Prompt {
	text := fmt.Sprintf("Done! Task %q is created", taskName)
	if leader != "" {
		text += fmt.Sprintf(" and assigned to manager %s", leader)
	}
	text += ". Share your phone number to create another task."
	return chat.Prompt{Text: text, RequestContact: true}
}

func fallbackPrompt() chat.Prompt {
	return chat.Prompt{
		Text:           "I did not catch that. Share your phone number to create a task, or send a currency code (like USD) for today's rate.",
		RequestContact: true,
	}
}

func currencyPrompt(name string, rate float64) chat.Prompt {
	return chat.Prompt{Text: fmt.Sprintf("Today's rate for %s: %.4f UAH.", name, rate)}
}

func currencyUnknownPrompt() chat.Prompt {
	return chat.Prompt{Text: "I could not find that currency."}
}

func transientErrorPrompt() chat.Prompt {
	return chat.Prompt{Text: "Something went wrong. Please try again."}
}
