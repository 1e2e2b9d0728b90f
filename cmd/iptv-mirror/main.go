// Command iptv-mirror keeps an IPTV playlist pointed at working mirrors.
//
//	update          fetch-channels, validate and assemble in one run (the scheduled job)
//	fetch-channels  download the relay playlist
//	validate        probe every mirror candidate for the playlist's premium IDs
//	complete        rewrite a playlist's stream URLs from the valid links, by premium ID
//	assemble        swap valid entries in the source playlist for their relay entries
//	scrape-daddy    build a 24/7 playlist with EPG ids and logos
//	scrape-ppv      build a playlist of current PPV events
//	epg             download guide feeds / list their channel ids
//	proxies check   report which proxies in the list can reach a probe URL
//	cache prune     drop old probe cache rows
//	doctor          check that the upstream endpoints answer
//	publish         commit outputs to a git checkout and/or upload them to S3
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		log.Error().Err(err).Msg("iptv-mirror failed")
		os.Exit(1)
	}
}
