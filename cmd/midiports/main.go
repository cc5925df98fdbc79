// Command midiports lists the MIDI output ports -preview can target.
package main

import (
	"fmt"

	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

func main() {
	defer midi.CloseDriver()

	outs := midi.GetOutPorts()
	if len(outs) == 0 {
		fmt.Println("No MIDI output ports found")
		return
	}
	fmt.Println("MIDI output ports:")
	for i, out := range outs {
		fmt.Printf("  %d: %s\n", i, out)
	}
}
