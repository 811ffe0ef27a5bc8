package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"sleepwarp.ai/internal/protocol"
)

func main() {
	var (
		url    = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name   = flag.String("name", "bot", "participant name")
		world  = flag.String("world", "", "preferred world id")
		resume = flag.String("resume", "", "resume token from an earlier session")
		retry  = flag.Duration("retry_sleep", 10*time.Second, "how often to ask for sleep while awake")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		Name:            *name,
		WorldPreference: *world,
	}
	if *resume != "" {
		hello.Auth = &protocol.HelloAuth{ResumeToken: *resume}
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	msgs := make(chan []byte, 64)
	go func() {
		defer close(msgs)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			msgs <- msg
		}
	}()

	sleep := protocol.ActionMsg{Type: protocol.TypeSleep, ProtocolVersion: protocol.Version}
	ticker := time.NewTicker(*retry)
	defer ticker.Stop()
	asleep := false

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			// SLEEP is refused during the day; keep asking until night.
			if !asleep {
				_ = conn.WriteJSON(sleep)
			}
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil {
				continue
			}
			switch base.Type {
			case protocol.TypeWelcome:
				var w protocol.WelcomeMsg
				if err := json.Unmarshal(msg, &w); err != nil {
					continue
				}
				logger.Printf("WELCOME participant_id=%s world=%s game_time=%d cycle_time=%d/%d resume=%s",
					w.ParticipantID, w.WorldID, w.Clock.GameTime, w.Clock.CycleTime, w.WorldParams.CycleLength, w.ResumeToken)
				_ = conn.WriteJSON(sleep)
				asleep = true
			case protocol.TypeTimeSync:
				var ts protocol.TimeSyncMsg
				if err := json.Unmarshal(msg, &ts); err != nil {
					continue
				}
				logger.Printf("TIME_SYNC game_time=%d cycle_time=%d driver=%v", ts.GameTime, ts.CycleTime, ts.ClockDriverActive)
			case protocol.TypeWeather:
				var wm protocol.WeatherMsg
				if err := json.Unmarshal(msg, &wm); err != nil {
					continue
				}
				logger.Printf("WEATHER raining=%v thundering=%v", wm.Raining, wm.Thundering)
			case protocol.TypeEvent:
				var ev protocol.EventMsg
				if err := json.Unmarshal(msg, &ev); err != nil {
					continue
				}
				logger.Printf("EVENT tick=%d %v", ev.Tick, ev.Event)
				if ev.Event["type"] == "WOKE" {
					asleep = false
				}
			case protocol.TypeError:
				var em protocol.ErrorMsg
				if err := json.Unmarshal(msg, &em); err != nil {
					continue
				}
				logger.Printf("ERROR %s %s", em.Code, em.Message)
				if em.Code == protocol.ErrNotNow {
					asleep = false
				}
			}
		}
	}
}
