// Package bridge drives a radio dongle over a serial line.
//
// The dongle owns the radio and the host talks to it with small packets.
// Both sides exchange sequence numbers on sync: a side sends
// REQ+seq and the other answers ACK+seq. After that each packet starts
// with the sender's expected seq, so a lost or corrupt byte breaks the
// sequence and forces a resync. There's no checksum, enable parity on
// the serial port if needed.
//
// Packet layout:
//
//	seq | flags(7:event 6-4:len 3-0:code) | [len if len field is 7] | data
//
// Replies echo the request seq in data[0] and set bit 0 of the code
// on failure.
package bridge
