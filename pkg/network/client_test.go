package network

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/duskline/voxelcore/pkg/voxel"
)

func TestRequestChunksPacketLayout(t *testing.T) {
	// Arrange: build the same encoding RequestChunks would produce, without
	// a live websocket connection, by inlining the layout and comparing
	// field-by-field against what a receiver would decode.
	positions := []voxel.ChunkPosition{
		{WX: 1, WY: -2, WZ: 3, VoxelSize: 4},
		{WX: 5, WY: 6, WZ: -7, VoxelSize: 8},
	}

	const recordSize = 4 * 4
	packet := make([]byte, 1+4+recordSize*len(positions))
	packet[0] = PacketIDRequestChunks
	binary.BigEndian.PutUint32(packet[1:], uint32(len(positions)))
	offset := 5
	for _, pos := range positions {
		binary.BigEndian.PutUint32(packet[offset:], uint32(pos.WX))
		binary.BigEndian.PutUint32(packet[offset+4:], uint32(pos.WY))
		binary.BigEndian.PutUint32(packet[offset+8:], uint32(pos.WZ))
		binary.BigEndian.PutUint32(packet[offset+12:], uint32(pos.VoxelSize))
		offset += recordSize
	}

	// Act: decode it back the way handleSendChunk's sibling would.
	if packet[0] != PacketIDRequestChunks {
		t.Fatalf("expected packet ID %d, got %d", PacketIDRequestChunks, packet[0])
	}
	count := binary.BigEndian.Uint32(packet[1:])
	if count != uint32(len(positions)) {
		t.Fatalf("expected count %d, got %d", len(positions), count)
	}

	r := bytes.NewReader(packet[5:])
	for i, want := range positions {
		got, err := readChunkPosition(r)
		if err != nil {
			t.Fatalf("position %d: %v", i, err)
		}
		if got != want {
			t.Errorf("position %d: got %+v, want %+v", i, got, want)
		}
	}
}

func TestDispatchRejectsEmptyPacket(t *testing.T) {
	c := &Client{}
	if err := c.dispatch(nil); err == nil {
		t.Error("expected an error for an empty packet")
	}
}

func TestDispatchRejectsUnknownPacketID(t *testing.T) {
	c := &Client{}
	if err := c.dispatch([]byte{0xFF}); err == nil {
		t.Error("expected an error for an unrecognized packet ID")
	}
}

func TestHandleSendChunkInvokesCallback(t *testing.T) {
	// Arrange: build a SendChunk payload by hand (position + one block type
	// per cell) and verify the handler decodes it into the callback.
	pos := voxel.ChunkPosition{WX: 2, WY: 0, WZ: -1, VoxelSize: 1}
	payload := make([]byte, 4*4+voxel.ChunkVolume*2)
	binary.BigEndian.PutUint32(payload[0:], uint32(pos.WX))
	binary.BigEndian.PutUint32(payload[4:], uint32(pos.WY))
	binary.BigEndian.PutUint32(payload[8:], uint32(pos.WZ))
	binary.BigEndian.PutUint32(payload[12:], uint32(pos.VoxelSize))
	binary.BigEndian.PutUint16(payload[16:], 42)

	var gotPos voxel.ChunkPosition
	var gotBlocks []voxel.Block
	c := &Client{
		OnChunkReceive: func(p voxel.ChunkPosition, blocks []voxel.Block) {
			gotPos = p
			gotBlocks = blocks
		},
	}

	// Act
	r := bytes.NewReader(payload)
	if err := c.handleSendChunk(r); err != nil {
		t.Fatalf("handleSendChunk: %v", err)
	}

	// Assert
	if gotPos != pos {
		t.Errorf("got position %+v, want %+v", gotPos, pos)
	}
	if len(gotBlocks) != voxel.ChunkVolume {
		t.Fatalf("expected %d blocks, got %d", voxel.ChunkVolume, len(gotBlocks))
	}
	if gotBlocks[0].Type != 42 {
		t.Errorf("expected first block type 42, got %d", gotBlocks[0].Type)
	}
}

func TestHandleSendMonoChunkInvokesCallback(t *testing.T) {
	pos := voxel.ChunkPosition{WX: 0, WY: 0, WZ: 0, VoxelSize: 2}
	payload := make([]byte, 4*4+2)
	binary.BigEndian.PutUint32(payload[0:], uint32(pos.WX))
	binary.BigEndian.PutUint32(payload[4:], uint32(pos.WY))
	binary.BigEndian.PutUint32(payload[8:], uint32(pos.WZ))
	binary.BigEndian.PutUint32(payload[12:], uint32(pos.VoxelSize))
	binary.BigEndian.PutUint16(payload[16:], 9)

	var gotPos voxel.ChunkPosition
	var gotBlock voxel.Block
	c := &Client{
		OnMonoChunk: func(p voxel.ChunkPosition, b voxel.Block) {
			gotPos = p
			gotBlock = b
		},
	}

	r := bytes.NewReader(payload)
	if err := c.handleSendMonoChunk(r); err != nil {
		t.Fatalf("handleSendMonoChunk: %v", err)
	}
	if gotPos != pos {
		t.Errorf("got position %+v, want %+v", gotPos, pos)
	}
	if gotBlock.Type != 9 {
		t.Errorf("expected block type 9, got %d", gotBlock.Type)
	}
}

func TestHandleChatInvokesCallback(t *testing.T) {
	buf := make([]byte, 4096)
	copy(buf, "hello world")
	var got string
	c := &Client{OnChat: func(message string) { got = message }}

	r := bytes.NewReader(buf)
	if err := c.handleChat(r); err != nil {
		t.Fatalf("handleChat: %v", err)
	}
	if got != "hello world" {
		t.Errorf("got %q, want %q", got, "hello world")
	}
}

func TestReadFixedStringTrimsTrailingZeroes(t *testing.T) {
	buf := make([]byte, 16)
	copy(buf, "abc")
	r := bytes.NewReader(buf)
	s, err := readFixedString(r, 16)
	if err != nil {
		t.Fatalf("readFixedString: %v", err)
	}
	if s != "abc" {
		t.Errorf("got %q, want %q", s, "abc")
	}
}
