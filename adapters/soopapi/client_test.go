package soopapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestResolveLiveStreamOnline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm: %v", err)
		}
		if got := r.PostFormValue("bid"); got != "teststreamer" {
			t.Errorf("bid = %q", got)
		}
		if got := r.PostFormValue("player_type"); got != "html5" {
			t.Errorf("player_type = %q", got)
		}
		w.Write([]byte(`{"CHANNEL":{
			"RESULT":1,
			"BJID":"teststreamer",
			"CHDOMAIN":"CHAT1.SOOPLIVE.CO.KR",
			"CHPT":"8001",
			"CHATNO":"123456789",
			"FTK":"ticket-token",
			"TITLE":"hello world",
			"BPS":"8000",
			"geo_cc":"KR",
			"geo_rc":"11",
			"acpt_lang":"ko_KR",
			"svc_lang":"ko_KR",
			"BPWD":"Y"
		}}`))
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL}, zaptest.NewLogger(t))
	desc, err := client.ResolveLiveStream(context.Background(), "teststreamer")
	if err != nil {
		t.Fatalf("ResolveLiveStream returned error: %v", err)
	}

	if !desc.Online {
		t.Fatal("expected online descriptor")
	}
	if desc.ChannelID != "teststreamer" {
		t.Errorf("channel id = %q", desc.ChannelID)
	}
	if desc.GatewayDomain != "CHAT1.SOOPLIVE.CO.KR" {
		t.Errorf("gateway domain = %q", desc.GatewayDomain)
	}
	if desc.GatewayPortBase != 8001 {
		t.Errorf("gateway port base = %d", desc.GatewayPortBase)
	}
	if desc.ChatRoom != "123456789" || desc.Ticket != "ticket-token" {
		t.Errorf("chat room/ticket = %q/%q", desc.ChatRoom, desc.Ticket)
	}
	if !desc.PasswordProtected {
		t.Error("expected password protected")
	}
}

func TestResolveLiveStreamOffline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"CHANNEL":{"RESULT":0,"geo_cc":"KR"}}`))
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL}, zaptest.NewLogger(t))
	desc, err := client.ResolveLiveStream(context.Background(), "sleeping")
	if err != nil {
		t.Fatalf("ResolveLiveStream returned error: %v", err)
	}
	if desc.Online {
		t.Fatal("expected offline descriptor")
	}
}

func TestResolveLiveStreamBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL}, zaptest.NewLogger(t))
	if _, err := client.ResolveLiveStream(context.Background(), "x"); err == nil {
		t.Fatal("expected error on HTTP 502")
	}
}

func TestFetchChannelEmotes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm: %v", err)
		}
		if got := r.PostFormValue("szBjId"); got != "teststreamer" {
			t.Errorf("szBjId = %q", got)
		}
		w.Write([]byte(`{
			"version": 2,
			"img_path": "https://cdn.example/emotes/",
			"data": [
				{"title":"wave","tier_type":1,"pc_img":"wave.png","pc_alternate_img":"wave@2x.png",
				 "mobile_img":"wave_m.png","mob_alternate_img":"","move_img":"Y","order_no":"1","black_keyword":"N"},
				{"title":"hype","tier_type":0,"pc_img":"hype.png","pc_alternate_img":"",
				 "mobile_img":"hype_m.png","mob_alternate_img":"","move_img":"N","order_no":"2","black_keyword":"Y"}
			]
		}`))
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL}, zaptest.NewLogger(t))
	emotes, err := client.FetchChannelEmotes(context.Background(), "teststreamer")
	if err != nil {
		t.Fatalf("FetchChannelEmotes returned error: %v", err)
	}
	if len(emotes) != 2 {
		t.Fatalf("expected 2 emotes, got %d", len(emotes))
	}

	wave := emotes[0]
	if wave.Name != "wave" || wave.Tier != 1 {
		t.Errorf("wave = %+v", wave)
	}
	if wave.PCImg != "https://cdn.example/emotes/wave.png" {
		t.Errorf("wave pc image = %q", wave.PCImg)
	}
	if wave.PCAltImg != "https://cdn.example/emotes/wave@2x.png" {
		t.Errorf("wave pc alt image = %q", wave.PCAltImg)
	}
	if !wave.Animated || wave.Blacklisted {
		t.Errorf("wave booleans = %+v", wave)
	}

	hype := emotes[1]
	if hype.Tier != 1 {
		t.Errorf("tier should default to 1, got %d", hype.Tier)
	}
	if hype.MobileAltImg != "" {
		t.Errorf("empty alt image must stay empty, got %q", hype.MobileAltImg)
	}
	if hype.Animated || !hype.Blacklisted {
		t.Errorf("hype booleans = %+v", hype)
	}
}

func TestFetchChannelEmotesNone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"version":0,"img_path":"","data":[]}`))
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL}, zaptest.NewLogger(t))
	emotes, err := client.FetchChannelEmotes(context.Background(), "plain")
	if err != nil {
		t.Fatalf("FetchChannelEmotes returned error: %v", err)
	}
	if len(emotes) != 0 {
		t.Fatalf("expected no emotes, got %d", len(emotes))
	}
}
