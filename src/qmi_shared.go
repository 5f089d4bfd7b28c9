package qmid

/*------------------------------------------------------------------
 *
 * Purpose:   	Constants shared by every QMI service.
 *
 * Description:	Service types, result codes and the message / TLV id
 *		tables for the four services this dialer speaks.
 *		The numeric values come from the QMI specification and
 *		must match the modem bit-exactly.
 *
 *		See:
 *		http://lists.freedesktop.org/archives/libqmi-devel/2012-August/000178.html
 *
 *---------------------------------------------------------------*/

const QMI_DEFAULT_BUF_SIZE = 0x1000

/* I/F type, first byte of every QMUX frame. */

const QMUX_IF_TYPE = 0x01

/* Service types (that is currently used by qmid). */

const (
	QMI_SERVICE_CTL = 0x00
	QMI_SERVICE_WDS = 0x01
	QMI_SERVICE_DMS = 0x02
	QMI_SERVICE_NAS = 0x03
)

var qmi_service_names = map[uint8]string{
	QMI_SERVICE_CTL: "CTL",
	QMI_SERVICE_WDS: "WDS",
	QMI_SERVICE_DMS: "DMS",
	QMI_SERVICE_NAS: "NAS",
}

/* QMUX control flags. 0x00 host->modem, 0x80 modem->host. */

const (
	QMUX_FLAGS_REQUEST  = 0x00
	QMUX_FLAGS_RESPONSE = 0x80
)

/* Result codes, first TLV of every reply. */

const (
	QMI_RESULT_SUCCESS = 0x0000
	QMI_RESULT_FAILURE = 0x0001
)

/* Error word accompanying a failure result. Only NoEffect is ever
 * inspected; some modems (MF821D) report it for a disconnect of a
 * live session. */

const QMI_ERR_NO_EFFECT = 0x001a

const QMI_TLV_RESULT = 0x02

/*
 * CTL messages. CTL always uses client id 0 and an 8 bit
 * transaction id.
 */

const (
	QMI_CTL_GET_CID         = 0x0022
	QMI_CTL_RELEASE_CID     = 0x0023
	QMI_CTL_SET_DATA_FORMAT = 0x0026
	QMI_CTL_SYNC            = 0x0027
)

const (
	QMI_CTL_TLV_ALLOC_INFO  = 0x01
	QMI_CTL_TLV_DATA_FORMAT = 0x01
	QMI_CTL_TLV_DATA_PROTO  = 0x10
)

/*
 * DMS messages. Only used to unlock the SIM.
 */

const QMI_DMS_VERIFY_PIN = 0x0028

const QMI_DMS_TLV_PIN = 0x01

const QMI_DMS_PIN_ID_PIN1 = 0x01

/*
 * WDS messages.
 */

const (
	QMI_WDS_START_NETWORK_INTERFACE = 0x0020
	QMI_WDS_STOP_NETWORK_INTERFACE  = 0x0021
	QMI_WDS_GET_PKT_SRVC_STATUS     = 0x0022
	QMI_WDS_SET_AUTOCONNECT         = 0x0051
)

const (
	QMI_WDS_TLV_PKT_DATA_HANDLE = 0x01
	QMI_WDS_TLV_AUTOCONNECT     = 0x01
	QMI_WDS_TLV_PKT_STATUS      = 0x01
)

/*
 * NAS messages.
 */

const (
	QMI_NAS_INDICATION_REGISTER             = 0x0003
	QMI_NAS_SET_SYSTEM_SELECTION_PREFERENCE = 0x0033
	QMI_NAS_GET_SYS_INFO                    = 0x004d
	QMI_NAS_SYS_INFO_IND                    = 0x004e
)

const (
	QMI_NAS_TLV_SS_MODE      = 0x11
	QMI_NAS_TLV_SI_GSM_SS    = 0x12
	QMI_NAS_TLV_SI_WCDMA_SS  = 0x13
	QMI_NAS_TLV_SI_LTE_SS    = 0x14
	QMI_NAS_TLV_IND_SYS_INFO = 0x18
)

const QMI_NAS_TLV_SI_SRV_STATUS_SRV = 0x02

/*
 * Verdict from a service's handle_msg. Only FAILURE escalates to
 * teardown in the event loop.
 */

type qmi_msg_status uint8

const (
	QMI_MSG_IGNORE qmi_msg_status = iota
	QMI_MSG_SUCCESS
	QMI_MSG_FAILURE
)
