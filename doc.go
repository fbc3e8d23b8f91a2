// Package cart keeps a persisted storefront cart and turns it into a
// pre-filled order message handed off through a messaging deep link.
//
// CartStore and OptionsStore own the mutable state and write through to a
// state.Backend after every change. Composer formats the order text,
// LinkBuilder embeds it in a wa.me link and Orchestrator sequences capture,
// composition, handoff and clearing. Session wires everything together and
// routes typed commands to the stores.
package cart
