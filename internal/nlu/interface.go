// README: NLU engine boundary; the core only sees this interface.
package nlu

import "context"

// Engine turns one raw utterance into a reply, owning session state and
// turn-taking. The dialog validator behind it stays engine-agnostic: any
// implementation that speaks the validator's webhook contract can replace
// this one.
type Engine interface {
	RecognizeText(ctx context.Context, sessionID, userID, text string) (string, error)
}
