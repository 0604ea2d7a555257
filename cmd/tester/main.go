// Command tester drives a party relay with a handful of websocket
// clients: everyone joins one party, everyone sends a burst of data
// frames, and the received counts are printed per client. With sender
// exclusion in effect, each client should receive (clients-1)*messages
// data frames.
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"

	"github.com/firekill222/signaling-server/domain"
	"github.com/firekill222/signaling-server/wire"
)

type Config struct {
	Addr     string        `default:"ws://localhost:8080/ws"`
	Party    int64         `default:"7"`
	Clients  int           `default:"3"`
	Messages int           `default:"5"`
	Settle   time.Duration `default:"500ms"`
	Drain    time.Duration `default:"2s"`
}

type counters struct {
	joins uint64
	parts uint64
	data  uint64
}

func main() {
	var cfg Config
	if err := envconfig.Process("tester", &cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	banner := color.New(color.BgBlack, color.FgGreen).
		Render(fmt.Sprintf(" Relay tester: %d clients, party %d, %d messages each ",
			cfg.Clients, cfg.Party, cfg.Messages))
	fmt.Println(banner)

	conns := make([]*websocket.Conn, cfg.Clients)
	received := make([]counters, cfg.Clients)
	var readers sync.WaitGroup

	for i := 0; i < cfg.Clients; i++ {
		url := fmt.Sprintf("%s?session=tester-%d", cfg.Addr, i)
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			log.Fatalf("Client %d failed to connect: %v", i, err)
		}
		conns[i] = conn

		readers.Add(1)
		go func(idx int, conn *websocket.Conn) {
			defer readers.Done()
			for {
				_, payload, err := conn.ReadMessage()
				if err != nil {
					return
				}
				msg, err := wire.DecodeS2C(payload)
				if err != nil {
					log.Printf("Client %d received garbage: %v", idx, err)
					continue
				}
				switch {
				case msg.UserJoin != nil:
					atomic.AddUint64(&received[idx].joins, 1)
				case msg.UserPart != nil:
					atomic.AddUint64(&received[idx].parts, 1)
				case msg.PartyData != nil:
					atomic.AddUint64(&received[idx].data, 1)
				}
			}
		}(i, conn)

		join, err := wire.EncodeC2S(wire.C2S{Join: &wire.Join{
			Party:  domain.PartyID(cfg.Party),
			Member: domain.MemberID(i + 1),
		}})
		if err != nil {
			log.Fatalf("Encoding join failed: %v", err)
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, join); err != nil {
			log.Fatalf("Client %d failed to join: %v", i, err)
		}
	}

	// Let the join synchronization settle before data traffic starts.
	time.Sleep(cfg.Settle)

	for i, conn := range conns {
		for n := 0; n < cfg.Messages; n++ {
			payload := fmt.Sprintf("client %d message %d", i, n)
			frame, err := wire.EncodeC2S(wire.C2S{Data: &wire.Data{
				Type: "chat",
				Data: []byte(payload),
			}})
			if err != nil {
				log.Fatalf("Encoding data failed: %v", err)
			}
			if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				log.Fatalf("Client %d failed to send: %v", i, err)
			}
		}
	}

	time.Sleep(cfg.Drain)
	for _, conn := range conns {
		_ = conn.Close()
	}
	readers.Wait()

	expected := (cfg.Clients - 1) * cfg.Messages
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Client", "Joins seen", "Parts seen", "Data received", "Data expected"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for i := range conns {
		table.Append([]string{
			fmt.Sprintf("tester-%d", i),
			strconv.FormatUint(received[i].joins, 10),
			strconv.FormatUint(received[i].parts, 10),
			strconv.FormatUint(received[i].data, 10),
			strconv.Itoa(expected),
		})
	}
	table.Render()
}
