// Package undo keeps a linear history of whole-state snapshots so state
// changes can be undone and redone.
//
// A History is constructed explicitly and bound to a store with Init. Every
// committed mutation is recorded with AddState; recording after an undo
// discards the undone future, and consecutive recordings matched by the
// squash rule collapse into one step. Undo and Redo replace the store's state
// with a copy of the neighbouring snapshot and then run the configured
// reactions for every watched substructure that differs between the two
// snapshots.
//
// Data flow:
//
//	store.Commit -> subscriber -> History.AddState
//	History.Undo/Redo -> Store.ReplaceState -> Reaction.Apply (emit, persist)
//
// Squash rules can be written as Go functions (LabelSquash, SquashRuleFunc)
// or as expressions evaluated with expr, CEL, or goja (build tag js_eval).
package undo
