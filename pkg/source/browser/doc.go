// Package browser harvests emoji from a picker rendered in Chrome.
//
// The picker is a virtualised list: only the rows near the viewport are in
// the DOM. Source reads the visible items, scrolls the list a fixed step at
// a time and treats it as exhausted once offsetHeight+scrollTop reaches
// scrollHeight. Skin tones are switched by clicking the tone toggle and
// firing a mouse event sequence on the option.
//
// Page is the slice of a tab the source touches, so tests run without a
// browser; ChromePage implements it with chromedp. Launch either attaches
// to a Chrome started with --remote-debugging-port, where the Slack tab is
// already signed in, or starts a fresh one.
package browser
