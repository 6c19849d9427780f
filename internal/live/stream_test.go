package live

import "testing"

func TestParsePushConfirmedKline(t *testing.T) {
	s := &WSStream{topic: "kline.5.SOLUSDT"}

	msg := []byte(`{
		"topic": "kline.5.SOLUSDT",
		"data": [
			{"start": 1000, "open": "100.5", "high": "101", "low": "99.5", "close": "100.1", "volume": "250", "confirm": false},
			{"start": 2000, "open": "100.1", "high": "102", "low": "100", "close": "101.5", "volume": "300", "confirm": true}
		]
	}`)

	bar, ok := s.parsePush(msg)
	if !ok {
		t.Fatal("expected a confirmed bar")
	}
	if bar.OpenTime != 2000 || bar.Open != 100.1 || bar.High != 102 || bar.Close != 101.5 {
		t.Fatalf("parsed bar = %+v", bar)
	}
}

func TestParsePushSkipsUnconfirmed(t *testing.T) {
	s := &WSStream{topic: "kline.5.SOLUSDT"}

	msg := []byte(`{
		"topic": "kline.5.SOLUSDT",
		"data": [{"start": 1000, "open": "100", "high": "101", "low": "99", "close": "100", "volume": "250", "confirm": false}]
	}`)

	if _, ok := s.parsePush(msg); ok {
		t.Fatal("unconfirmed kline must not produce a bar")
	}
}

func TestParsePushIgnoresOtherTopics(t *testing.T) {
	s := &WSStream{topic: "kline.5.SOLUSDT"}

	msg := []byte(`{
		"topic": "kline.5.ETHUSDT",
		"data": [{"start": 1000, "open": "100", "high": "101", "low": "99", "close": "100", "volume": "250", "confirm": true}]
	}`)

	if _, ok := s.parsePush(msg); ok {
		t.Fatal("foreign topic must be ignored")
	}
}

func TestParsePushMalformed(t *testing.T) {
	s := &WSStream{topic: "kline.5.SOLUSDT"}

	if _, ok := s.parsePush([]byte("not json")); ok {
		t.Fatal("malformed payload must be ignored")
	}

	msg := []byte(`{
		"topic": "kline.5.SOLUSDT",
		"data": [{"start": 1000, "open": "abc", "high": "101", "low": "99", "close": "100", "volume": "250", "confirm": true}]
	}`)
	if _, ok := s.parsePush(msg); ok {
		t.Fatal("non-numeric prices must be skipped")
	}
}
