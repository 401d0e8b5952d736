// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI loops through a small set of views:
//  1. [InputView] : paste a link or ID, tab cycles the declared source platform
//  2. [MatchingView] : spinner while the engine resolves
//  3. [ResultView] : the outcome, with o to open the target link
//  4. [SessionView] : every result from this session, newest first
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Resolutions run as commands so the spinner keeps animating, and repeated inputs come back as CACHE_HIT from the engine.
//
// Letter bindings (o, n, h, q) are disabled in the input view; ctrl+c always quits.
package ui
