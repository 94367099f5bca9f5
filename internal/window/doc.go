/*
Package window implements the desktop's window manager.

The manager owns every open window: its surface (position, size, stacking
and visibility), its taskbar tab, and the optional application extension
that must be cancelled when the window closes. All mutation goes through
Manager methods; renderers read Snapshots.

Stacking is a single monotonic counter. Each newly opened or refocused
window takes the next value, values are never reused after a close, and
the window with the highest value among non-minimized windows is the one
drawn on top and highlighted in the taskbar.

Example usage:

	mgr := window.NewManager(window.NewDesktop(), window.NewTabStrip(), window.DefaultOptions())
	mgr.Open("notepad", "Notepad", window.StaticContent("<h1>Notepad</h1>"), window.OpenOptions{})
	mgr.Minimize("notepad")
	mgr.HandleTabClick("notepad") // restores and refocuses
*/
package window
