// OSC listen - print every message the puppet emits
//
// Debug listener for the stage side: registers a handler for every
// known address and prints messages as they arrive. Point the puppet
// at this tool before wiring up the real lighting rig.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/hypebeast/go-osc/osc"

	"github.com/studiolumen/light-puppet/pkg/notify"
)

func main() {
	host := flag.String("host", "127.0.0.1", "Interface to listen on")
	port := flag.Int("port", 7000, "Port to listen on")
	flag.Parse()

	addrs := make([]string, 0, len(notify.Addresses))
	for _, a := range notify.Addresses {
		addrs = append(addrs, a)
	}
	sort.Strings(addrs)

	echo := func(msg *osc.Message) {
		fmt.Printf("%-24s %s\n", msg.Address, formatArgs(msg))
	}

	d := osc.NewStandardDispatcher()
	for _, addr := range addrs {
		if err := d.AddMsgHandler(addr, echo); err != nil {
			fatal(err)
		}
	}

	server := &osc.Server{
		Addr:       fmt.Sprintf("%s:%d", *host, *port),
		Dispatcher: d,
	}

	fmt.Printf("🎧 Listening for OSC on %s:%d\n", *host, *port)
	for _, addr := range addrs {
		fmt.Printf("   %s\n", addr)
	}
	fmt.Println()

	if err := server.ListenAndServe(); err != nil {
		fatal(err)
	}
}

func formatArgs(msg *osc.Message) string {
	parts := make([]string, 0, len(msg.Arguments))
	for _, arg := range msg.Arguments {
		parts = append(parts, fmt.Sprintf("%v", arg))
	}
	return strings.Join(parts, " ")
}

func fatal(err error) {
	fmt.Printf("❌ %v\n", err)
	os.Exit(1)
}
