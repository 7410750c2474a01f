// Package discovery announces a payload over UDP multicast and reports the
// payloads announced by other instances on the same group and port.
//
//	d := &discovery.Discover{
//		Info:     []byte("0a"),
//		Port:     53552,
//		Interval: time.Second,
//	}
//	if err := d.Start(); err != nil {
//		return err
//	}
//	defer d.Close()
//
//	for entry := range d.Entries() {
//		fmt.Printf("discovered %s at %v\n", entry.Info, entry.Time)
//	}
//
// Every datagram starts with the random 8-byte key of its sender, which lets
// an instance drop its own announcements. Network errors stop the background
// goroutines and are logged; they never panic.
package discovery
