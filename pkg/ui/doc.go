// Package ui holds the terminal side of emojiharvest: coloured messages,
// a progress display driven by collector events and desktop notifications.
package ui
