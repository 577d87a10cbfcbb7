package multiout

import (
	"errors"
	"testing"
)

func TestSelectPrimaryOutput(t *testing.T) {
	tests := []struct {
		name     string
		devices  []Device
		wantName string
		wantErr  bool
	}{
		{
			name: "builtin speakers",
			devices: []Device{
				{ID: 40, Name: "BlackHole 2ch", UID: "bh-uid", OutputChannels: 2},
				{ID: 41, Name: "MacBook Pro Speakers", UID: "builtin-out", OutputChannels: 2},
			},
			wantName: "MacBook Pro Speakers",
		},
		{
			name: "case insensitive substring",
			devices: []Device{
				{ID: 50, Name: "SPEAKERS (USB)", UID: "usb-out", OutputChannels: 2},
			},
			wantName: "SPEAKERS (USB)",
		},
		{
			name: "zero output channels rejected",
			devices: []Device{
				{ID: 60, Name: "Speakers", UID: "mute-out", OutputChannels: 0},
			},
			wantErr: true,
		},
		{
			name: "first match in snapshot order wins",
			devices: []Device{
				{ID: 70, Name: "USB Speakers", UID: "usb-out", OutputChannels: 2},
				{ID: 71, Name: "MacBook Pro Speakers", UID: "builtin-out", OutputChannels: 2},
			},
			wantName: "USB Speakers",
		},
		{
			name: "channel count can rescue a later device",
			devices: []Device{
				{ID: 80, Name: "Speakers", UID: "dead-out", OutputChannels: 0},
				{ID: 81, Name: "Desk Speakers", UID: "desk-out", OutputChannels: 2},
			},
			wantName: "Desk Speakers",
		},
		{
			name: "no speaker in any name",
			devices: []Device{
				{ID: 90, Name: "BlackHole 2ch", UID: "bh-uid", OutputChannels: 2},
				{ID: 91, Name: "Studio Display", UID: "disp-out", OutputChannels: 2},
			},
			wantErr: true,
		},
		{
			name:    "empty snapshot",
			devices: nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectPrimaryOutput(tt.devices)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got device %q", got.Name)
				}
				var nf *NotFoundError
				if !errors.As(err, &nf) {
					t.Fatalf("expected NotFoundError, got %T", err)
				}
				if nf.Which != "primary output" {
					t.Errorf("NotFoundError.Which = %q, want %q", nf.Which, "primary output")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Name != tt.wantName {
				t.Errorf("selected %q, want %q", got.Name, tt.wantName)
			}
		})
	}
}

func TestSelectPrimaryOutputIdempotent(t *testing.T) {
	devices := []Device{
		{ID: 1, Name: "USB Speakers", UID: "usb-out", OutputChannels: 2},
		{ID: 2, Name: "MacBook Pro Speakers", UID: "builtin-out", OutputChannels: 2},
	}

	first, err := SelectPrimaryOutput(devices)
	if err != nil {
		t.Fatalf("first selection failed: %v", err)
	}
	second, err := SelectPrimaryOutput(devices)
	if err != nil {
		t.Fatalf("second selection failed: %v", err)
	}
	if first != second {
		t.Errorf("selection not idempotent: %+v vs %+v", first, second)
	}
}

func TestSelectLoopback(t *testing.T) {
	tests := []struct {
		name    string
		devices []Device
		wantUID string
		wantErr bool
	}{
		{
			name: "exact name",
			devices: []Device{
				{ID: 10, Name: "MacBook Pro Speakers", UID: "builtin-out", OutputChannels: 2},
				{ID: 11, Name: "BlackHole 2ch", UID: "bh-uid", OutputChannels: 2},
			},
			wantUID: "bh-uid",
		},
		{
			name: "case insensitive exact match",
			devices: []Device{
				{ID: 20, Name: "BLACKHOLE 2CH", UID: "bh-uid", OutputChannels: 2},
			},
			wantUID: "bh-uid",
		},
		{
			name: "sixteen channel variant rejected",
			devices: []Device{
				{ID: 30, Name: "BlackHole 16ch", UID: "bh16-uid", OutputChannels: 16},
			},
			wantErr: true,
		},
		{
			name: "substring is not enough",
			devices: []Device{
				{ID: 31, Name: "BlackHole 2ch (copy)", UID: "bh-copy", OutputChannels: 2},
			},
			wantErr: true,
		},
		{
			name:    "not installed",
			devices: []Device{{ID: 32, Name: "MacBook Pro Speakers", UID: "builtin-out", OutputChannels: 2}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectLoopback(tt.devices)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got device %q", got.Name)
				}
				var nf *NotFoundError
				if !errors.As(err, &nf) {
					t.Fatalf("expected NotFoundError, got %T", err)
				}
				if nf.Which != "loopback" {
					t.Errorf("NotFoundError.Which = %q, want %q", nf.Which, "loopback")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.UID != tt.wantUID {
				t.Errorf("selected uid %q, want %q", got.UID, tt.wantUID)
			}
		})
	}
}

func TestFindExisting(t *testing.T) {
	devices := []Device{
		{ID: 1, Name: "MacBook Pro Speakers", UID: "builtin-out", OutputChannels: 2},
		{ID: 2, Name: "Multi-Output Device", UID: "agg-uid", OutputChannels: 2},
	}

	got, ok := FindExisting(devices, AggregateName)
	if !ok {
		t.Fatal("expected to find existing aggregate")
	}
	if got.ID != 2 {
		t.Errorf("found device id %d, want 2", got.ID)
	}

	// Exact match is case sensitive, unlike the selectors.
	lower := []Device{{ID: 3, Name: "multi-output device", UID: "x", OutputChannels: 2}}
	if _, ok := FindExisting(lower, AggregateName); ok {
		t.Error("case-insensitive name must not match")
	}
}

func TestBuildAggregateSpec(t *testing.T) {
	primary := Device{ID: 41, Name: "MacBook Pro Speakers", UID: "builtin-out", OutputChannels: 2}
	loopback := Device{ID: 40, Name: "BlackHole 2ch", UID: "bh-uid", OutputChannels: 2}

	spec := BuildAggregateSpec(primary, loopback)

	if spec.Name != AggregateName {
		t.Errorf("Name = %q, want %q", spec.Name, AggregateName)
	}
	if spec.UID != AggregateUID {
		t.Errorf("UID = %q, want %q", spec.UID, AggregateUID)
	}
	if len(spec.SubDevices) != 2 || spec.SubDevices[0] != "builtin-out" || spec.SubDevices[1] != "bh-uid" {
		t.Errorf("SubDevices = %v, want [builtin-out bh-uid]", spec.SubDevices)
	}
	if spec.MainUID != "builtin-out" {
		t.Errorf("MainUID = %q, want builtin-out", spec.MainUID)
	}
	if !spec.Stacked {
		t.Error("Stacked must be true")
	}
}

// The member order in the descriptor is fixed by the selection roles, not by
// where the devices sat in the enumeration snapshot.
func TestBuildAggregateSpecOrderIndependent(t *testing.T) {
	snapshot := []Device{
		{ID: 40, Name: "BlackHole 2ch", UID: "bh-uid", OutputChannels: 2},
		{ID: 41, Name: "MacBook Pro Speakers", UID: "builtin-out", OutputChannels: 2},
	}

	primary, err := SelectPrimaryOutput(snapshot)
	if err != nil {
		t.Fatalf("primary selection failed: %v", err)
	}
	loopback, err := SelectLoopback(snapshot)
	if err != nil {
		t.Fatalf("loopback selection failed: %v", err)
	}

	spec := BuildAggregateSpec(primary, loopback)
	if spec.SubDevices[0] != "builtin-out" {
		t.Errorf("primary must come first in SubDevices, got %v", spec.SubDevices)
	}
	if spec.MainUID != "builtin-out" {
		t.Errorf("MainUID = %q, want builtin-out", spec.MainUID)
	}
}
