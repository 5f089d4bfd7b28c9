package qmid

/*------------------------------------------------------------------
 *
 * Purpose:   	QMUX framing codec.
 *
 * Description: A QMUX frame, as it travels over the character device:
 *
 *			* marker (0x01)
 *			* length, 16 bit LE, counting everything after
 *			  the marker (so the length field itself through
 *			  the last TLV byte)
 *			* control flags (0x00 request, 0x80 reply/ind)
 *			* service type
 *			* client id
 *			* service header
 *			* zero or more TLVs
 *
 *		The service header differs for CTL, which has an 8 bit
 *		transaction id where everyone else has 16 bits:
 *
 *			CTL:	flags(1) txid(1) msgid(2) length(2)
 *			other:	flags(1) txid(2) msgid(2) length(2)
 *
 *		All multi-byte integers are little-endian on the wire
 *		regardless of host.
 *
 *		Building works on a growable byte slice with the two
 *		length fields patched on every TLV append, parsing
 *		returns a decoded header view plus the TLV list.
 *		Values inside TLVs are opaque here; interpreting them
 *		is the caller's job.
 *
 *---------------------------------------------------------------*/

import (
	"encoding/binary"
	"errors"
)

/* marker + length + flags + service + client */
const QMUX_HDR_SIZE = 6

const QMI_HDR_CTL_SIZE = 6
const QMI_HDR_GEN_SIZE = 7

const QMI_TLV_HDR_SIZE = 3

var ErrMalformed = errors.New("malformed QMUX frame")
var ErrTooLarge = errors.New("QMUX frame exceeds buffer capacity")

type qmi_tlv struct {
	tlv_type uint8
	value    []byte
}

/*
 * Decoded view of a complete inbound frame.
 */

type qmux_frame struct {
	flags   uint8
	service uint8
	client  uint8

	ctl_flags   uint8
	transaction uint16 /* CTL only uses the low byte */
	message     uint16

	tlvs []qmi_tlv
}

/*-------------------------------------------------------------------
 *
 * Name:	parse_qmux_frame
 *
 * Purpose:	Decode one complete frame, marker byte included.
 *
 * Inputs:	buf	- Exactly one frame.  The reassembly layer
 *			  guarantees the length; we re-check anyway.
 *
 * Returns:	Decoded frame, or ErrMalformed if the length field
 *		disagrees with the buffer, a TLV is truncated, or the
 *		frame is too short for its service header.
 *
 *---------------------------------------------------------------*/

func parse_qmux_frame(buf []byte) (*qmux_frame, error) {
	if len(buf) < QMUX_HDR_SIZE+QMI_HDR_CTL_SIZE {
		return nil, ErrMalformed
	}

	if buf[0] != QMUX_IF_TYPE {
		return nil, ErrMalformed
	}

	var length = int(binary.LittleEndian.Uint16(buf[1:3]))
	if length+1 != len(buf) || length+1 > QMI_DEFAULT_BUF_SIZE {
		return nil, ErrMalformed
	}

	var frame = &qmux_frame{
		flags:   buf[3],
		service: buf[4],
		client:  buf[5],
	}

	var payload []byte
	var payload_len int

	if frame.service == QMI_SERVICE_CTL {
		frame.ctl_flags = buf[6]
		frame.transaction = uint16(buf[7])
		frame.message = binary.LittleEndian.Uint16(buf[8:10])
		payload_len = int(binary.LittleEndian.Uint16(buf[10:12]))
		payload = buf[QMUX_HDR_SIZE+QMI_HDR_CTL_SIZE:]
	} else {
		if len(buf) < QMUX_HDR_SIZE+QMI_HDR_GEN_SIZE {
			return nil, ErrMalformed
		}

		frame.ctl_flags = buf[6]
		frame.transaction = binary.LittleEndian.Uint16(buf[7:9])
		frame.message = binary.LittleEndian.Uint16(buf[9:11])
		payload_len = int(binary.LittleEndian.Uint16(buf[11:13]))
		payload = buf[QMUX_HDR_SIZE+QMI_HDR_GEN_SIZE:]
	}

	if payload_len != len(payload) {
		return nil, ErrMalformed
	}

	for len(payload) > 0 {
		if len(payload) < QMI_TLV_HDR_SIZE {
			return nil, ErrMalformed
		}

		var tlv_type = payload[0]
		var tlv_len = int(binary.LittleEndian.Uint16(payload[1:3]))

		if len(payload) < QMI_TLV_HDR_SIZE+tlv_len {
			return nil, ErrMalformed
		}

		frame.tlvs = append(frame.tlvs, qmi_tlv{
			tlv_type: tlv_type,
			value:    payload[QMI_TLV_HDR_SIZE : QMI_TLV_HDR_SIZE+tlv_len],
		})

		payload = payload[QMI_TLV_HDR_SIZE+tlv_len:]
	}

	return frame, nil
}

/*
 * Find a TLV by type.  Wire order is preserved in the slice, so when
 * the caller cares about order it walks the slice itself.
 */

func find_tlv(tlvs []qmi_tlv, tlv_type uint8) []byte {
	for _, tlv := range tlvs {
		if tlv.tlv_type == tlv_type {
			return tlv.value
		}
	}

	return nil
}

/*
 * The first TLV of every reply carries (result u16, error u16).
 * Indications have no result TLV.
 */

func (frame *qmux_frame) result() (uint16, uint16, bool) {
	if len(frame.tlvs) == 0 || len(frame.tlvs[0].value) < 2 {
		return 0, 0, false
	}

	var value = frame.tlvs[0].value
	var result = binary.LittleEndian.Uint16(value[0:2])
	var errcode uint16

	if len(value) >= 4 {
		errcode = binary.LittleEndian.Uint16(value[2:4])
	}

	return result, errcode, true
}

/*-------------------------------------------------------------------
 *
 * Name:	create_qmi_request
 *
 * Purpose:	Start an outbound request frame.
 *
 * Inputs:	service		- QMI_SERVICE_*
 *		client		- CID.  Always 0 for CTL.
 *		transaction	- Current counter value for the service.
 *		message		- Message id.
 *
 * Returns:	Request with both length fields covering an empty
 *		payload.  add_tlv patches them as TLVs are appended.
 *
 *---------------------------------------------------------------*/

type qmi_request struct {
	buf []byte
}

func create_qmi_request(service uint8, client uint8, transaction uint16, message uint16) *qmi_request {
	var req = &qmi_request{}

	req.buf = append(req.buf, QMUX_IF_TYPE, 0, 0, QMUX_FLAGS_REQUEST, service, client)

	if service == QMI_SERVICE_CTL {
		req.buf = append(req.buf, 0, uint8(transaction))
	} else {
		req.buf = append(req.buf, 0, 0, 0)
		binary.LittleEndian.PutUint16(req.buf[7:9], transaction)
	}

	req.buf = append(req.buf, 0, 0, 0, 0)
	binary.LittleEndian.PutUint16(req.buf[len(req.buf)-4:], message)

	binary.LittleEndian.PutUint16(req.buf[1:3], uint16(len(req.buf)-1))

	return req
}

/*
 * Append one TLV, updating the QMUX length and the service header
 * payload length.
 */

func (req *qmi_request) add_tlv(tlv_type uint8, value []byte) error {
	if len(req.buf)+QMI_TLV_HDR_SIZE+len(value) > QMI_DEFAULT_BUF_SIZE {
		return ErrTooLarge
	}

	req.buf = append(req.buf, tlv_type, 0, 0)
	binary.LittleEndian.PutUint16(req.buf[len(req.buf)-2:], uint16(len(value)))
	req.buf = append(req.buf, value...)

	binary.LittleEndian.PutUint16(req.buf[1:3], uint16(len(req.buf)-1))

	var payload_off = QMUX_HDR_SIZE + QMI_HDR_CTL_SIZE
	if req.buf[4] != QMI_SERVICE_CTL {
		payload_off = QMUX_HDR_SIZE + QMI_HDR_GEN_SIZE
	}

	binary.LittleEndian.PutUint16(req.buf[payload_off-2:payload_off], uint16(len(req.buf)-payload_off))

	return nil
}

func (req *qmi_request) bytes() []byte {
	return req.buf
}

/*
 * Little-endian helpers for TLV values.
 */

func tlv_uint8(v uint8) []byte {
	return []byte{v}
}

func tlv_uint16(v uint16) []byte {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	return buf[:]
}

func tlv_uint32(v uint32) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return buf[:]
}
