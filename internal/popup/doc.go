// Package popup opens the provider consent page in its own window and reports
// when the user closes it.
//
// Monitor holds at most one window. While the window is open a goroutine asks
// it every interval (1s by default) whether it has closed; the first positive
// answer moves the monitor to Closed, stops the ticker and runs the callback.
// Release stops the ticker and closes the window without running the callback.
// There is no timeout: a window the user never closes is watched until
// Release.
//
// ExecOpener is the production Opener. It launches a chromium-style browser in
// app mode with a throwaway profile directory, which ties the process lifetime
// to the window: when the process exits, the window is gone.
package popup
