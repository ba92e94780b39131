package network

// DefaultPort is the server port assumed when an address carries no port
// of its own.
const DefaultPort = 20000

// ClientBound packet IDs — sent by the server to a connected client.
const (
	PacketIDIdentification       uint8 = 0x00
	PacketIDAddEntity            uint8 = 0x01
	PacketIDRemoveEntity         uint8 = 0x02
	PacketIDUpdateEntityPosition uint8 = 0x03
	PacketIDSendChunk            uint8 = 0x04
	PacketIDSendMonoTypeChunk    uint8 = 0x05
	PacketIDChat                 uint8 = 0x06
	PacketIDUpdateEntityMetadata uint8 = 0x07
)

// ServerBound packet IDs — sent by the client to the server.
const (
	PacketIDUpdateEntity   uint8 = 0x00
	PacketIDUpdateBlock    uint8 = 0x01
	PacketIDBlockBulkEdit  uint8 = 0x02
	PacketIDChatMessage    uint8 = 0x03
	PacketIDClientMetadata uint8 = 0x04
	PacketIDRequestChunks  uint8 = 0x05
)

// BlockUpdate is a single cell edit to be flushed to the server in a bulk
// edit packet.
type BlockUpdate struct {
	BlockType uint16
	X, Y, Z   int32
}
