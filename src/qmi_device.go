package qmid

/*------------------------------------------------------------------
 *
 * Purpose:   	The device session - all mutable state of the dialer.
 *
 * Description:	One qmi_device exists for the lifetime of the process.
 *		It owns the file handle, the frame reassembly buffer
 *		and the per-service transaction counters, client ids
 *		and state machines.  Only the event loop mutates it.
 *
 *		Reads from the character device can return partial
 *		frames; read_data resumes across calls by tracking
 *		qmux_progress (bytes so far) and cur_qmux_length (total
 *		frame size once the header is in).
 *
 *---------------------------------------------------------------*/

import (
	"encoding/binary"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

/*
 * Per-service state machines.  Transitions are driven entirely by
 * replies from the modem, see the individual engines.
 */

type ctl_state_e uint8

const (
	CTL_NOT_SYNCED ctl_state_e = iota
	CTL_SYNCED
)

type nas_state_e uint8

const (
	NAS_IDLE nas_state_e = iota
	NAS_GOT_CID
	NAS_SET_SYSTEM
	NAS_IND_REQ
	NAS_SYS_INFO_QUERY
)

type wds_state_e uint8

const (
	WDS_IDLE wds_state_e = iota
	WDS_GOT_CID
	WDS_AUTOCONNECT_SET
	WDS_CONNECTING
	WDS_CONNECTED
	WDS_DISCONNECTING
)

type dms_state_e uint8

const (
	DMS_IDLE dms_state_e = iota
	DMS_GOT_CID
	DMS_VERIFY_PIN
)

/*
 * Radio technology currently serving us, from NAS SYS_INFO.
 */

const (
	NO_SERVICE = iota
	SERVICE_GSM
	SERVICE_UMTS
	SERVICE_LTE
)

var qmi_technology_names = []string{"none", "GSM", "UMTS", "LTE"}

/* Number of services needing a CID before startup can fan out. */
const QMID_NUM_SERVICES = 3

type qmi_device struct {
	qmi_file *os.File      /* nil when driven by a test double */
	qmi_xfer io.ReadWriter /* the file, or the double */

	buf             [QMI_DEFAULT_BUF_SIZE]byte
	qmux_progress   int
	cur_qmux_length int

	/* Transaction ids must be nonzero on the wire.  CTL is 8 bit,
	 * everyone else 16. */
	ctl_transaction_id uint8
	wds_transaction_id uint16
	dms_transaction_id uint16
	nas_transaction_id uint16

	ctl_num_cids int
	nas_id       uint8
	wds_id       uint8
	dms_id       uint8

	ctl_state ctl_state_e
	nas_state nas_state_e
	wds_state wds_state_e
	dms_state dms_state_e

	cur_service     int
	pkt_data_handle uint32

	pin_code     string
	pin_unlocked bool

	frames_rx uint64
	frames_tx uint64
}

/*
 * All counters start at 1.  The first SYNC therefore goes out with
 * transaction id 1, which the sync reply handler relies on.
 */

func qmi_device_init(qmid *qmi_device) {
	qmid.ctl_transaction_id = 1
	qmid.nas_transaction_id = 1
	qmid.wds_transaction_id = 1
	qmid.dms_transaction_id = 1
}

/*-------------------------------------------------------------------
 *
 * Name:	qmid_open_modem
 *
 * Purpose:	Open the QMI character device and kick off the
 *		conversation with a SYNC request.
 *
 * Inputs:	device	- Path, usually /dev/cdc-wdm0.
 *
 *---------------------------------------------------------------*/

func qmid_open_modem(qmid *qmi_device, device string) error {
	var f, err = os.OpenFile(device, os.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		return err
	}

	qmid.qmi_file = f
	qmid.qmi_xfer = f

	return qmi_ctl_send_sync(qmid)
}

/*
 * Write one complete frame.  A short write on a character device
 * would leave the modem mid-frame, so it is treated as an error.
 */

func qmi_helpers_write(qmid *qmi_device, buf []byte) error {
	qmid_dump_frame("send", buf)

	var n, err = qmid.qmi_xfer.Write(buf)
	if err != nil {
		return err
	}
	if n != len(buf) {
		return io.ErrShortWrite
	}

	qmid.frames_tx++

	return nil
}

/*
 * Bump a transaction counter, skipping the forbidden zero.  The
 * request being sent was built with the pre-increment value.
 */

func next_transaction_8(counter *uint8) {
	*counter++
	if *counter == 0 {
		*counter = 1
	}
}

func next_transaction_16(counter *uint16) {
	*counter++
	if *counter == 0 {
		*counter = 1
	}
}

/*-------------------------------------------------------------------
 *
 * Name:	read_data
 *
 * Purpose:	Pull bytes off the device and reassemble one frame.
 *
 * Description:	Two phases, resumed across calls:
 *
 *		(1) While cur_qmux_length == 0, collect the fixed
 *		    QMUX header prefix.  Once all six bytes are in,
 *		    the length field tells us the full frame size
 *		    (+1 for the marker, which the field excludes).
 *
 *		(2) Collect the remainder.  When the frame is
 *		    complete, dispatch it and reset both counters.
 *
 *		A length announcement larger than the reassembly
 *		buffer is malformed; the header bytes are dropped and
 *		reassembly restarts.
 *
 * Returns:	Message status from dispatch (QMI_MSG_IGNORE while a
 *		frame is still incomplete) and any read error.  A read
 *		error is fatal to the caller.
 *
 *---------------------------------------------------------------*/

func read_data(qmid *qmi_device) (qmi_msg_status, error) {
	if qmid.cur_qmux_length == 0 {
		var n, err = qmid.qmi_xfer.Read(qmid.buf[qmid.qmux_progress:QMUX_HDR_SIZE])
		if err != nil {
			if qmid_verbose_logging >= QMID_LOG_LEVEL_1 {
				qmid_log.Error("Read from device failed", "err", err)
			}
			return QMI_MSG_IGNORE, err
		}

		qmid.qmux_progress += n

		if qmid.qmux_progress < QMUX_HDR_SIZE {
			if qmid_verbose_logging >= QMID_LOG_LEVEL_3 {
				qmid_log.Debug("Partial QMUX header", "length", qmid.qmux_progress)
			}
			return QMI_MSG_IGNORE, nil
		}

		var qmux_length = int(binary.LittleEndian.Uint16(qmid.buf[1:3]))

		/* +1 is for the marker, which is also part of the data
		 * we want to read. */
		if qmux_length+1 > QMI_DEFAULT_BUF_SIZE {
			if qmid_verbose_logging >= QMID_LOG_LEVEL_3 {
				qmid_log.Debug("Announced frame too large, dropping", "length", qmux_length)
			}
			qmid.qmux_progress = 0
			return QMI_MSG_IGNORE, nil
		}

		qmid.cur_qmux_length = qmux_length + 1
	}

	/* If we have a full header, try to read data.  This might
	 * happen immediately. */
	if qmid.cur_qmux_length > 0 && qmid.qmux_progress < qmid.cur_qmux_length {
		var n, err = qmid.qmi_xfer.Read(qmid.buf[qmid.qmux_progress:qmid.cur_qmux_length])
		if err != nil {
			if qmid_verbose_logging >= QMID_LOG_LEVEL_1 {
				qmid_log.Error("Read from device failed", "err", err)
			}
			return QMI_MSG_IGNORE, err
		}

		qmid.qmux_progress += n
	}

	if qmid.cur_qmux_length > 0 && qmid.qmux_progress == qmid.cur_qmux_length {
		var status = handle_msg(qmid)
		qmid.qmux_progress = 0
		qmid.cur_qmux_length = 0
		return status, nil
	}

	return QMI_MSG_IGNORE, nil
}
