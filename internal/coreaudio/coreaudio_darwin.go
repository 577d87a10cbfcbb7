// ABOUTME: CoreAudio HAL adapter for device enumeration and aggregate creation.
// ABOUTME: All property reads use the HAL's two-phase size-then-fetch protocol.

//go:build darwin && cgo

package coreaudio

/*
#cgo LDFLAGS: -framework CoreAudio -framework CoreFoundation

#include <CoreAudio/CoreAudio.h>
#include <CoreFoundation/CoreFoundation.h>
#include <stdlib.h>

// Two-phase property fetch: ask for the byte size, allocate exactly that,
// fetch the value into it. On success the caller owns *outData and must
// free it.
static OSStatus fetchProperty(AudioObjectID obj, AudioObjectPropertySelector sel,
                              AudioObjectPropertyScope scope,
                              void **outData, UInt32 *outSize) {
	AudioObjectPropertyAddress addr = {sel, scope, kAudioObjectPropertyElementMain};
	UInt32 size = 0;
	OSStatus status = AudioObjectGetPropertyDataSize(obj, &addr, 0, NULL, &size);
	if (status != kAudioHardwareNoError) {
		return status;
	}
	void *data = malloc(size);
	if (data == NULL) {
		return kAudio_MemFullError;
	}
	status = AudioObjectGetPropertyData(obj, &addr, 0, NULL, &size, data);
	if (status != kAudioHardwareNoError) {
		free(data);
		return status;
	}
	*outData = data;
	*outSize = size;
	return kAudioHardwareNoError;
}

// String properties come back as CFStringRefs. Same two-phase protocol, plus
// the UTF-8 conversion; the ref is released before returning.
static OSStatus fetchStringProperty(AudioObjectID obj, AudioObjectPropertySelector sel,
                                    char *buf, UInt32 bufSize) {
	AudioObjectPropertyAddress addr = {sel, kAudioObjectPropertyScopeGlobal, kAudioObjectPropertyElementMain};
	UInt32 size = 0;
	OSStatus status = AudioObjectGetPropertyDataSize(obj, &addr, 0, NULL, &size);
	if (status != kAudioHardwareNoError) {
		return status;
	}
	if (size != sizeof(CFStringRef)) {
		return kAudioHardwareBadPropertySizeError;
	}
	CFStringRef str = NULL;
	status = AudioObjectGetPropertyData(obj, &addr, 0, NULL, &size, &str);
	if (status != kAudioHardwareNoError) {
		return status;
	}
	if (str == NULL) {
		return kAudioHardwareUnspecifiedError;
	}
	Boolean ok = CFStringGetCString(str, buf, bufSize, kCFStringEncodingUTF8);
	CFRelease(str);
	return ok ? kAudioHardwareNoError : kAudioHardwareUnspecifiedError;
}

// Sums mNumberChannels over the output-scope AudioBufferList. Input-only
// devices report an empty list, which sums to zero.
static OSStatus countOutputChannels(AudioObjectID obj, UInt32 *outChannels) {
	void *data = NULL;
	UInt32 size = 0;
	OSStatus status = fetchProperty(obj, kAudioDevicePropertyStreamConfiguration,
	                                kAudioDevicePropertyScopeOutput, &data, &size);
	if (status != kAudioHardwareNoError) {
		return status;
	}
	AudioBufferList *list = (AudioBufferList *)data;
	UInt32 channels = 0;
	for (UInt32 i = 0; i < list->mNumberBuffers; i++) {
		channels += list->mBuffers[i].mNumberChannels;
	}
	free(data);
	*outChannels = channels;
	return kAudioHardwareNoError;
}

// Builds the aggregate description dictionary and submits it. The sub-device
// list is an ordered CFArray of {uid} dictionaries; order is what the OS
// shows in device lists.
static OSStatus createAggregate(const char *uid, const char *name,
                                const char **subUIDs, int subCount,
                                const char *mainUID, int stacked,
                                AudioObjectID *outID) {
	CFMutableDictionaryRef desc = CFDictionaryCreateMutable(kCFAllocatorDefault, 0,
		&kCFTypeDictionaryKeyCallBacks, &kCFTypeDictionaryValueCallBacks);
	if (desc == NULL) {
		return kAudio_MemFullError;
	}

	CFStringRef cfUID = CFStringCreateWithCString(kCFAllocatorDefault, uid, kCFStringEncodingUTF8);
	CFDictionarySetValue(desc, CFSTR(kAudioAggregateDeviceUIDKey), cfUID);
	CFRelease(cfUID);

	CFStringRef cfName = CFStringCreateWithCString(kCFAllocatorDefault, name, kCFStringEncodingUTF8);
	CFDictionarySetValue(desc, CFSTR(kAudioAggregateDeviceNameKey), cfName);
	CFRelease(cfName);

	CFMutableArrayRef subList = CFArrayCreateMutable(kCFAllocatorDefault, subCount, &kCFTypeArrayCallBacks);
	for (int i = 0; i < subCount; i++) {
		CFStringRef subUID = CFStringCreateWithCString(kCFAllocatorDefault, subUIDs[i], kCFStringEncodingUTF8);
		CFMutableDictionaryRef sub = CFDictionaryCreateMutable(kCFAllocatorDefault, 0,
			&kCFTypeDictionaryKeyCallBacks, &kCFTypeDictionaryValueCallBacks);
		CFDictionarySetValue(sub, CFSTR(kAudioSubDeviceUIDKey), subUID);
		CFArrayAppendValue(subList, sub);
		CFRelease(sub);
		CFRelease(subUID);
	}
	CFDictionarySetValue(desc, CFSTR(kAudioAggregateDeviceSubDeviceListKey), subList);
	CFRelease(subList);

	CFStringRef cfMain = CFStringCreateWithCString(kCFAllocatorDefault, mainUID, kCFStringEncodingUTF8);
	CFDictionarySetValue(desc, CFSTR(kAudioAggregateDeviceMasterSubDeviceKey), cfMain);
	CFRelease(cfMain);

	CFNumberRef cfStacked = CFNumberCreate(kCFAllocatorDefault, kCFNumberIntType, &stacked);
	CFDictionarySetValue(desc, CFSTR(kAudioAggregateDeviceIsStackedKey), cfStacked);
	CFRelease(cfStacked);

	OSStatus status = AudioHardwareCreateAggregateDevice(desc, outID);
	CFRelease(desc);
	return status;
}
*/
import "C"

import (
	"encoding/binary"
	"unsafe"

	"github.com/777genius/standupbot/internal/multiout"
)

// Service talks to the CoreAudio HAL. The HAL is process-global state, so the
// zero value is ready to use and instances are interchangeable.
type Service struct{}

// New returns a Service backed by the live HAL.
func New() *Service {
	return &Service{}
}

// ListDevices enumerates every attached audio device in the HAL's order.
// A device that fails any property query aborts the enumeration with a
// QueryError naming the device and property; a snapshot with invented names
// or UIDs would poison selection later.
func (s *Service) ListDevices() ([]multiout.Device, error) {
	data, err := fetchPropertyBytes(C.AudioObjectID(C.kAudioObjectSystemObject),
		C.kAudioHardwarePropertyDevices, C.kAudioObjectPropertyScopeGlobal, "device list")
	if err != nil {
		return nil, err
	}

	ids := parseDeviceIDs(data)
	devices := make([]multiout.Device, 0, len(ids))
	for _, id := range ids {
		name, err := fetchString(id, C.kAudioObjectPropertyName, "name")
		if err != nil {
			return nil, err
		}
		uid, err := fetchString(id, C.kAudioDevicePropertyDeviceUID, "UID")
		if err != nil {
			return nil, err
		}
		channels, err := outputChannels(id)
		if err != nil {
			return nil, err
		}
		devices = append(devices, multiout.Device{
			ID:             multiout.DeviceID(id),
			Name:           name,
			UID:            uid,
			OutputChannels: channels,
		})
	}
	return devices, nil
}

// CreateAggregate submits the descriptor to the HAL and returns the new
// device's handle. The HAL publishes the device asynchronously, so it may
// take a moment to show up in enumeration afterwards.
func (s *Service) CreateAggregate(spec multiout.AggregateSpec) (multiout.DeviceID, error) {
	cUID := C.CString(spec.UID)
	defer C.free(unsafe.Pointer(cUID))
	cName := C.CString(spec.Name)
	defer C.free(unsafe.Pointer(cName))
	cMain := C.CString(spec.MainUID)
	defer C.free(unsafe.Pointer(cMain))

	subs := make([]*C.char, len(spec.SubDevices))
	for i, uid := range spec.SubDevices {
		subs[i] = C.CString(uid)
		defer C.free(unsafe.Pointer(subs[i]))
	}

	stacked := C.int(0)
	if spec.Stacked {
		stacked = 1
	}

	var id C.AudioObjectID
	status := C.createAggregate(cUID, cName, (**C.char)(unsafe.Pointer(&subs[0])),
		C.int(len(subs)), cMain, stacked, &id)
	if status != C.kAudioHardwareNoError {
		return 0, &multiout.CreateError{Status: int32(status)}
	}
	return multiout.DeviceID(id), nil
}

// fetchPropertyBytes wraps the C two-phase fetch and hands the value back as
// Go-owned bytes. The C buffer is freed before returning, so no per-property
// allocation outlives its query.
func fetchPropertyBytes(obj C.AudioObjectID, sel C.AudioObjectPropertySelector,
	scope C.AudioObjectPropertyScope, property string) ([]byte, error) {
	var data unsafe.Pointer
	var size C.UInt32
	status := C.fetchProperty(obj, sel, scope, &data, &size)
	if status != C.kAudioHardwareNoError {
		return nil, &multiout.QueryError{
			Device:   multiout.DeviceID(obj),
			Property: property,
			Status:   int32(status),
		}
	}
	defer C.free(data)
	return C.GoBytes(data, C.int(size)), nil
}

func fetchString(obj C.AudioObjectID, sel C.AudioObjectPropertySelector, property string) (string, error) {
	buf := make([]C.char, 512)
	status := C.fetchStringProperty(obj, sel, &buf[0], C.UInt32(len(buf)))
	if status != C.kAudioHardwareNoError {
		return "", &multiout.QueryError{
			Device:   multiout.DeviceID(obj),
			Property: property,
			Status:   int32(status),
		}
	}
	return C.GoString(&buf[0]), nil
}

func outputChannels(obj C.AudioObjectID) (uint32, error) {
	var channels C.UInt32
	status := C.countOutputChannels(obj, &channels)
	if status != C.kAudioHardwareNoError {
		return 0, &multiout.QueryError{
			Device:   multiout.DeviceID(obj),
			Property: "output stream configuration",
			Status:   int32(status),
		}
	}
	return uint32(channels), nil
}

// parseDeviceIDs decodes the raw device-list property into handles.
// AudioObjectIDs are native-endian; both darwin architectures are
// little-endian.
func parseDeviceIDs(data []byte) []C.AudioObjectID {
	const idSize = 4
	ids := make([]C.AudioObjectID, 0, len(data)/idSize)
	for off := 0; off+idSize <= len(data); off += idSize {
		ids = append(ids, C.AudioObjectID(binary.LittleEndian.Uint32(data[off:])))
	}
	return ids
}
