package claudecode

import (
	"os"

	"github.com/para-dev/para/internal/agent"
	paraerrors "github.com/para-dev/para/internal/errors"
)

// resolvePrompt reads task into a single prompt string. ok is false if task
// carries no prompt at all (a session with no initial task).
func resolvePrompt(task agent.TaskOrigin) (prompt string, ok bool, err error) {
	if task.Prompt != "" {
		return task.Prompt, true, nil
	}
	if task.File == "" {
		return "", false, nil
	}
	data, readErr := os.ReadFile(task.File)
	if readErr != nil {
		return "", false, paraerrors.Wrap(paraerrors.KindIO, "read task file "+task.File, readErr)
	}
	return string(data), true, nil
}
