package warp

// Broadcast sends sync once to every participant. A failed send is counted and
// skipped; it never stops delivery to the rest of the roster.
func Broadcast(sender Sender, roster []Participant, sync ClockSync) (sent, skipped int) {
	for _, p := range roster {
		if err := sender.SendClock(p.ID, sync); err != nil {
			skipped++
			continue
		}
		sent++
	}
	return sent, skipped
}
