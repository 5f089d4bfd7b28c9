package qmid

/*
 * Shared plumbing for the protocol tests: an in-memory stand-in for
 * the modem character device, reply builders, and a splitter for the
 * outbound byte stream.
 */

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

/*
 * Both directions of the device, in memory.  Reads drain whatever
 * the test queued; writes pile up for inspection.
 */

type test_modem struct {
	rd bytes.Buffer
	wr bytes.Buffer
}

func (m *test_modem) Read(p []byte) (int, error) {
	return m.rd.Read(p)
}

func (m *test_modem) Write(p []byte) (int, error) {
	return m.wr.Write(p)
}

func new_test_device() (*qmi_device, *test_modem) {
	var modem = &test_modem{}
	var qmid = &qmi_device{}

	qmi_device_init(qmid)
	qmid.qmi_xfer = modem

	return qmid, modem
}

/*
 * Queue one frame and run read_data until it has been consumed.
 */

func deliver(t *testing.T, qmid *qmi_device, frame []byte) qmi_msg_status {
	t.Helper()

	var modem = qmid.qmi_xfer.(*test_modem)
	modem.rd.Write(frame)

	var status = QMI_MSG_IGNORE
	for modem.rd.Len() > 0 {
		var s, err = read_data(qmid)
		require.NoError(t, err)
		if s != QMI_MSG_IGNORE {
			status = s
		}
	}

	return status
}

/*
 * Build a modem->host frame.  Same layout as a request, except for
 * the direction bit in the QMUX control flags.
 */

func build_reply(t *testing.T, service uint8, client uint8, transaction uint16, message uint16, tlvs ...qmi_tlv) []byte {
	t.Helper()

	var req = create_qmi_request(service, client, transaction, message)
	for _, tlv := range tlvs {
		require.NoError(t, req.add_tlv(tlv.tlv_type, tlv.value))
	}

	var buf = req.bytes()
	buf[3] = QMUX_FLAGS_RESPONSE

	return buf
}

func result_tlv(result uint16, errcode uint16) qmi_tlv {
	var value [4]byte
	binary.LittleEndian.PutUint16(value[0:2], result)
	binary.LittleEndian.PutUint16(value[2:4], errcode)

	return qmi_tlv{tlv_type: QMI_TLV_RESULT, value: value[:]}
}

func result_ok() qmi_tlv {
	return result_tlv(QMI_RESULT_SUCCESS, 0)
}

/*
 * Split the outbound stream back into frames.
 */

func sent_frames(t *testing.T, modem *test_modem) []*qmux_frame {
	t.Helper()

	var frames []*qmux_frame
	var buf = modem.wr.Bytes()

	for len(buf) > 0 {
		require.GreaterOrEqual(t, len(buf), QMUX_HDR_SIZE, "trailing garbage in outbound stream")

		var length = int(binary.LittleEndian.Uint16(buf[1:3])) + 1
		require.GreaterOrEqual(t, len(buf), length, "truncated outbound frame")

		var frame, err = parse_qmux_frame(buf[:length])
		require.NoError(t, err)

		frames = append(frames, frame)
		buf = buf[length:]
	}

	return frames
}

func sent_messages(t *testing.T, modem *test_modem) [][2]uint16 {
	t.Helper()

	var messages [][2]uint16
	for _, frame := range sent_frames(t, modem) {
		messages = append(messages, [2]uint16{uint16(frame.service), frame.message})
	}

	return messages
}

/*
 * Reader that hands out a frame in a fixed partition of chunks, never
 * more than one chunk per read.  A read smaller than the current
 * chunk takes its front and leaves the rest for the next read.
 */

type chunked_reader struct {
	chunks [][]byte
	wr     io.Writer
}

func (c *chunked_reader) Read(p []byte) (int, error) {
	if len(c.chunks) == 0 {
		return 0, io.EOF
	}

	var chunk = c.chunks[0]
	var n = copy(p, chunk)

	if n == len(chunk) {
		c.chunks = c.chunks[1:]
	} else {
		c.chunks[0] = chunk[n:]
	}

	return n, nil
}

func (c *chunked_reader) Write(p []byte) (int, error) {
	if c.wr == nil {
		return len(p), nil
	}

	return c.wr.Write(p)
}
