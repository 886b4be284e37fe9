package domain

import "strings"

// CommandKind is the closed set of actions a chat message can request.
type CommandKind int

const (
	CmdUnknown CommandKind = iota
	CmdHelp
	CmdQueryFixed
	CmdQuerySubscribed
	CmdQuerySymbol
	CmdAddSymbol
	CmdRemoveSymbol
	CmdPushNow
)

// Command is a parsed chat message. Arg is the whitespace-trimmed remainder
// after the keyword; it may be empty, which the dispatcher rejects.
type Command struct {
	Kind CommandKind
	Arg  string
}

// Keyword surface. Matching is case-sensitive and keyword-exact: either the
// whole message equals the keyword, or the keyword is followed by an
// argument. Anything else is CmdUnknown.
const (
	kwHelp   = "help"
	kwFixed  = "fixed"
	kwList   = "list"
	kwQuote  = "quote"
	kwAdd    = "add"
	kwRemove = "remove"
	kwPush   = "push"
)

// ParseCommand maps free text onto a Command. Pure, no side effects.
func ParseCommand(text string) Command {
	msg := strings.TrimSpace(text)

	switch msg {
	case kwHelp:
		return Command{Kind: CmdHelp}
	case kwFixed:
		return Command{Kind: CmdQueryFixed}
	case kwList:
		return Command{Kind: CmdQuerySubscribed}
	case kwPush:
		return Command{Kind: CmdPushNow}
	case kwQuote:
		return Command{Kind: CmdQuerySymbol}
	case kwAdd:
		return Command{Kind: CmdAddSymbol}
	case kwRemove:
		return Command{Kind: CmdRemoveSymbol}
	}

	if arg, ok := argAfter(msg, kwQuote); ok {
		return Command{Kind: CmdQuerySymbol, Arg: arg}
	}
	if arg, ok := argAfter(msg, kwAdd); ok {
		return Command{Kind: CmdAddSymbol, Arg: arg}
	}
	if arg, ok := argAfter(msg, kwRemove); ok {
		return Command{Kind: CmdRemoveSymbol, Arg: arg}
	}

	return Command{Kind: CmdUnknown}
}

// argAfter matches "<keyword> <rest>" and returns the trimmed rest.
func argAfter(msg, keyword string) (string, bool) {
	if !strings.HasPrefix(msg, keyword+" ") {
		return "", false
	}
	return strings.TrimSpace(msg[len(keyword)+1:]), true
}
