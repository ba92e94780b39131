// Package network implements the block-update protocol's client side: a
// websocket connection to a chunk/entity server, adapted from the
// teacher's raw-TCP client with the same packet-ID taxonomy, carried over
// gorilla/websocket instead of a bare net.Conn, and extended with an
// explicit chunk-request packet so the LOD window manager can ask for
// exactly the positions it's missing instead of relying on the server to
// infer them from render distance alone.
package network

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"net/url"
	"strings"
	"sync"

	"github.com/duskline/voxelcore/pkg/voxel"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Client represents a connection to the voxel world server.
type Client struct {
	conn       *websocket.Conn
	writeMu    sync.Mutex
	entityID   uint32
	entityName string
	renderDist uint8
	log        *zap.SugaredLogger

	OnEntityAdd      func(entityID uint32, x, y, z, yaw, pitch float32, name string)
	OnEntityRemove   func(entityID uint32)
	OnEntityUpdate   func(entityID uint32, x, y, z, yaw, pitch float32)
	OnChunkReceive   func(pos voxel.ChunkPosition, blocks []voxel.Block)
	OnMonoChunk      func(pos voxel.ChunkPosition, block voxel.Block)
	OnChat           func(message string)
	OnEntityMetadata func(entityID uint32, name string)
}

// NewClient dials a websocket connection to the server at address. address
// may be a bare host (DefaultPort is assumed) or a host:port pair; either
// is rewritten into a ws:// URL at the "/ws" path.
func NewClient(address string, log *zap.SugaredLogger) (*Client, error) {
	if !strings.Contains(address, ":") {
		address = fmt.Sprintf("%s:%d", address, DefaultPort)
	}
	u := url.URL{Scheme: "ws", Host: address, Path: "/ws"}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("network: failed to connect to server: %w", err)
	}

	return &Client{
		conn:       conn,
		renderDist: 8,
		log:        log,
	}, nil
}

// Close closes the connection to the server.
func (c *Client) Close() error {
	return c.conn.Close()
}

// SetEntityName sets the name the client identifies itself with.
func (c *Client) SetEntityName(name string) {
	c.entityName = name
}

// SetRenderDistance sets the render distance advertised to the server.
func (c *Client) SetRenderDistance(distance uint8) {
	c.renderDist = distance
}

func (c *Client) writePacket(packet []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.conn == nil {
		return nil
	}
	return c.conn.WriteMessage(websocket.BinaryMessage, packet)
}

// SendClientMetadata sends the client's render distance and display name.
func (c *Client) SendClientMetadata() error {
	packet := make([]byte, 1+1+64)
	packet[0] = PacketIDClientMetadata
	packet[1] = c.renderDist
	copy(packet[2:], truncate([]byte(c.entityName), 64))
	return c.writePacket(packet)
}

// SendUpdateEntity sends the client's own entity position to the server.
func (c *Client) SendUpdateEntity(x, y, z, yaw, pitch float32) error {
	packet := make([]byte, 1+4*5)
	packet[0] = PacketIDUpdateEntity
	binary.BigEndian.PutUint32(packet[1:], floatBits(x))
	binary.BigEndian.PutUint32(packet[5:], floatBits(y))
	binary.BigEndian.PutUint32(packet[9:], floatBits(z))
	binary.BigEndian.PutUint32(packet[13:], floatBits(yaw))
	binary.BigEndian.PutUint32(packet[17:], floatBits(pitch))
	return c.writePacket(packet)
}

// SendUpdateBlock sends a single block edit to the server.
func (c *Client) SendUpdateBlock(blockType uint16, x, y, z int32) error {
	packet := make([]byte, 1+2+4*3)
	packet[0] = PacketIDUpdateBlock
	binary.BigEndian.PutUint16(packet[1:], blockType)
	binary.BigEndian.PutUint32(packet[3:], uint32(x))
	binary.BigEndian.PutUint32(packet[7:], uint32(y))
	binary.BigEndian.PutUint32(packet[11:], uint32(z))
	return c.writePacket(packet)
}

// SendBlockBulkEdit batches multiple block edits into a single packet.
func (c *Client) SendBlockBulkEdit(updates []BlockUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	const recordSize = 2 + 4*3
	packet := make([]byte, 1+4+recordSize*len(updates))
	packet[0] = PacketIDBlockBulkEdit
	binary.BigEndian.PutUint32(packet[1:], uint32(len(updates)))

	offset := 5
	for _, u := range updates {
		binary.BigEndian.PutUint16(packet[offset:], u.BlockType)
		binary.BigEndian.PutUint32(packet[offset+2:], uint32(u.X))
		binary.BigEndian.PutUint32(packet[offset+6:], uint32(u.Y))
		binary.BigEndian.PutUint32(packet[offset+10:], uint32(u.Z))
		offset += recordSize
	}
	return c.writePacket(packet)
}

// SendChat sends a chat message to the server.
func (c *Client) SendChat(message string) error {
	packet := make([]byte, 1+4096)
	packet[0] = PacketIDChatMessage
	copy(packet[1:], truncate([]byte(message), 4096))
	return c.writePacket(packet)
}

// RequestChunks asks the server for the populated content of every
// position listed. Implements lod.ChunkSource; results arrive later via
// OnChunkReceive/OnMonoChunk as the server streams them back.
func (c *Client) RequestChunks(positions []voxel.ChunkPosition) {
	if len(positions) == 0 {
		return
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
	if err := c.writePacket(packet); err != nil && c.log != nil {
		c.log.Warnw("failed to send chunk request", "error", err, "count", len(positions))
	}
}

// ProcessPackets reads and dispatches incoming packets until the
// connection closes or a decode error occurs. Each websocket message
// carries exactly one packet.
func (c *Client) ProcessPackets() error {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("network: read message: %w", err)
		}
		if err := c.dispatch(data); err != nil {
			return err
		}
	}
}

func (c *Client) dispatch(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("network: received empty packet")
	}
	r := bytes.NewReader(data[1:])
	switch data[0] {
	case PacketIDIdentification:
		return c.handleIdentification(r)
	case PacketIDAddEntity:
		return c.handleAddEntity(r)
	case PacketIDRemoveEntity:
		return c.handleRemoveEntity(r)
	case PacketIDUpdateEntityPosition:
		return c.handleUpdateEntityPosition(r)
	case PacketIDSendChunk:
		return c.handleSendChunk(r)
	case PacketIDSendMonoTypeChunk:
		return c.handleSendMonoChunk(r)
	case PacketIDChat:
		return c.handleChat(r)
	case PacketIDUpdateEntityMetadata:
		return c.handleUpdateEntityMetadata(r)
	default:
		return fmt.Errorf("network: unknown packet ID: %d", data[0])
	}
}

func (c *Client) handleIdentification(r *bytes.Reader) error {
	var entityID uint32
	if err := binary.Read(r, binary.BigEndian, &entityID); err != nil {
		return fmt.Errorf("network: read entity ID: %w", err)
	}
	c.entityID = entityID
	return nil
}

func (c *Client) handleAddEntity(r *bytes.Reader) error {
	var entityID uint32
	var x, y, z, yaw, pitch float32
	for _, f := range []any{&entityID, &x, &y, &z, &yaw, &pitch} {
		if err := binary.Read(r, binary.BigEndian, f); err != nil {
			return fmt.Errorf("network: read add-entity field: %w", err)
		}
	}
	name, err := readFixedString(r, 64)
	if err != nil {
		return fmt.Errorf("network: read entity name: %w", err)
	}
	if c.OnEntityAdd != nil {
		c.OnEntityAdd(entityID, x, y, z, yaw, pitch, name)
	}
	return nil
}

func (c *Client) handleRemoveEntity(r *bytes.Reader) error {
	var entityID uint32
	if err := binary.Read(r, binary.BigEndian, &entityID); err != nil {
		return fmt.Errorf("network: read entity ID: %w", err)
	}
	if c.OnEntityRemove != nil {
		c.OnEntityRemove(entityID)
	}
	return nil
}

func (c *Client) handleUpdateEntityPosition(r *bytes.Reader) error {
	var entityID uint32
	var x, y, z, yaw, pitch float32
	for _, f := range []any{&entityID, &x, &y, &z, &yaw, &pitch} {
		if err := binary.Read(r, binary.BigEndian, f); err != nil {
			return fmt.Errorf("network: read entity-position field: %w", err)
		}
	}
	if c.OnEntityUpdate != nil {
		c.OnEntityUpdate(entityID, x, y, z, yaw, pitch)
	}
	return nil
}

func (c *Client) handleSendChunk(r *bytes.Reader) error {
	pos, err := readChunkPosition(r)
	if err != nil {
		return err
	}

	payload := make([]byte, voxel.ChunkVolume*2)
	if _, err := r.Read(payload); err != nil {
		return fmt.Errorf("network: read chunk payload: %w", err)
	}
	blocks := make([]voxel.Block, voxel.ChunkVolume)
	for i := range blocks {
		blocks[i] = voxel.Block{Type: binary.BigEndian.Uint16(payload[i*2:])}
	}

	if c.OnChunkReceive != nil {
		c.OnChunkReceive(pos, blocks)
	}
	return nil
}

func (c *Client) handleSendMonoChunk(r *bytes.Reader) error {
	pos, err := readChunkPosition(r)
	if err != nil {
		return err
	}
	var blockType uint16
	if err := binary.Read(r, binary.BigEndian, &blockType); err != nil {
		return fmt.Errorf("network: read mono block type: %w", err)
	}
	if c.OnMonoChunk != nil {
		c.OnMonoChunk(pos, voxel.Block{Type: blockType})
	}
	return nil
}

func (c *Client) handleChat(r *bytes.Reader) error {
	message, err := readFixedString(r, 4096)
	if err != nil {
		return fmt.Errorf("network: read chat message: %w", err)
	}
	if c.OnChat != nil {
		c.OnChat(message)
	}
	return nil
}

func (c *Client) handleUpdateEntityMetadata(r *bytes.Reader) error {
	var entityID uint32
	if err := binary.Read(r, binary.BigEndian, &entityID); err != nil {
		return fmt.Errorf("network: read entity ID: %w", err)
	}
	name, err := readFixedString(r, 64)
	if err != nil {
		return fmt.Errorf("network: read entity name: %w", err)
	}
	if c.OnEntityMetadata != nil {
		c.OnEntityMetadata(entityID, name)
	}
	return nil
}

func readChunkPosition(r *bytes.Reader) (voxel.ChunkPosition, error) {
	var wx, wy, wz, voxelSize int32
	for _, f := range []any{&wx, &wy, &wz, &voxelSize} {
		if err := binary.Read(r, binary.BigEndian, f); err != nil {
			return voxel.ChunkPosition{}, fmt.Errorf("network: read chunk position: %w", err)
		}
	}
	return voxel.ChunkPosition{WX: wx, WY: wy, WZ: wz, VoxelSize: voxelSize}, nil
}

func readFixedString(r *bytes.Reader, size int) (string, error) {
	buf := make([]byte, size)
	if _, err := r.Read(buf); err != nil {
		return "", err
	}
	if idx := bytes.IndexByte(buf, 0); idx >= 0 {
		buf = buf[:idx]
	}
	return string(buf), nil
}

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}

func floatBits(f float32) uint32 {
	return math.Float32bits(f)
}
